package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		allowed  []string
		expected []string
	}{
		{
			"separate value",
			[]string{"-a", "localhost:8080", "-x", "ignored"},
			[]string{"-a"},
			[]string{"-a", "localhost:8080"},
		},
		{
			"equals form",
			[]string{"--config=conf.json", "-d=/tmp/db"},
			[]string{"--config", "-d"},
			[]string{"--config=conf.json", "-d=/tmp/db"},
		},
		{
			"flag without value followed by another flag",
			[]string{"-v", "-a", "addr"},
			[]string{"-v", "-a"},
			[]string{"-v", "-a", "addr"},
		},
		{
			"nothing allowed",
			[]string{"-a", "x", "-b", "y"},
			nil,
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			assert.Equal(t, tt.expected, got)
		})
	}
}

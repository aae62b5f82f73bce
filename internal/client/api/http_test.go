package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkrivenko/marksync/internal/client/models"
	"github.com/dkrivenko/marksync/internal/common"
)

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])

		json.NewEncoder(w).Encode(LoginResult{Token: "tok", Role: "teacher", Salt: []byte("salt")})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	result, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", result.Token)
	assert.Equal(t, "teacher", result.Role)
	assert.Equal(t, []byte("salt"), result.Salt)
}

func TestHealth_ProbeIsHeadRequest(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	require.NoError(t, c.Health(context.Background()))
	assert.Equal(t, http.MethodHead, method)
}

func TestHealth_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewHTTPClient(srv.URL, nil)
	err := c.Health(context.Background())
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestHealth_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Health(ctx)
	require.ErrorIs(t, err, common.ErrUnavailable)
}

func TestSubmitSubmission_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(SubmissionResult{ID: 501})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	c.SetToken("tok")

	result, err := c.SubmitSubmission(context.Background(), &SubmissionRequest{
		CorrelationID: "c-1", AssessmentID: 7, StudentName: "A",
		Answers: map[string]models.Answer{},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(501), result.ID)
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			"unauthorized", http.StatusUnauthorized, `{"error":"invalid token"}`,
			func(t *testing.T, err error) { require.ErrorIs(t, err, common.ErrUnauthorized) },
		},
		{
			"forbidden", http.StatusForbidden, ``,
			func(t *testing.T, err error) { require.ErrorIs(t, err, common.ErrUnauthorized) },
		},
		{
			"validation", http.StatusUnprocessableEntity, `{"error":"unknown assessment 9"}`,
			func(t *testing.T, err error) {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, http.StatusUnprocessableEntity, ve.Status)
				assert.Equal(t, "unknown assessment 9", ve.Message)
			},
		},
		{
			"server error", http.StatusInternalServerError, ``,
			func(t *testing.T, err error) { require.ErrorIs(t, err, common.ErrUnavailable) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, nil)
			_, err := c.SubmitSubmission(context.Background(), &SubmissionRequest{CorrelationID: "c"})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestUploadAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/uploads", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		assert.Equal(t, "map.jpg", r.Header.Get("X-Filename"))
		json.NewEncoder(w).Encode(map[string]string{"url": "https://assets.example/map.jpg"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	url, err := c.UploadAsset(context.Background(), "map.jpg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.Equal(t, "https://assets.example/map.jpg", url)
}

func TestFetchGrading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/grading", r.URL.Path)
		w.Write([]byte(`[{"id":501,"assessment_id":7,"student_name":"A","answers":{"q1":{"value":"Paris"}},"complete":false}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	subs, err := c.FetchGrading(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(501), subs[0].ServerID)
	assert.Equal(t, "Paris", subs[0].Answers["q1"].Value)
}

func TestPushGrades_EmptyResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	err := c.PushGrades(context.Background(), []GradePush{{SubmissionID: 501, FieldID: "q1", Marks: 5}})
	require.NoError(t, err)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Status: 400, Message: "bad payload"}
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad payload")
	assert.False(t, errors.Is(err, common.ErrUnavailable))
}

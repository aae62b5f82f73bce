package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config values from environment variables, loading a .env
// file first if one is present. A missing .env file is not an error; deploys
// that export variables directly skip it.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("MARKSYNC_ADDRESS"); v != "" {
		cfg.EndpointAddr = v
	}
	if v := os.Getenv("MARKSYNC_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("MARKSYNC_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}
	if v := os.Getenv("MARKSYNC_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TokenValidityDuration = d
		}
	}
	if v := os.Getenv("MARKSYNC_S3_ROOT_USER"); v != "" {
		cfg.S3RootUser = v
	}
	if v := os.Getenv("MARKSYNC_S3_ROOT_PASSWORD"); v != "" {
		cfg.S3RootPassword = v
	}
	if v := os.Getenv("MARKSYNC_S3_BUCKET"); v != "" {
		cfg.S3Bucket = v
	}
	if v := os.Getenv("MARKSYNC_S3_REGION"); v != "" {
		cfg.S3Region = v
	}
	if v := os.Getenv("MARKSYNC_S3_BASE_ENDPOINT"); v != "" {
		cfg.S3BaseEndpoint = v
	}
	if v := os.Getenv("MARKSYNC_ASSET_BASE_URL"); v != "" {
		cfg.AssetBaseURL = v
	}
}

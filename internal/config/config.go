package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration. Everything is loaded once
// at startup from environment variables.
type Config struct {
	ServerPort   int    `env:"PORT" envDefault:"8080"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./qms.db"`
	PublicDir    string `env:"PUBLIC_DIR" envDefault:"./public"`
	UploadDir    string `env:"UPLOAD_DIR" envDefault:"./public/uploads"`
	FrontendURL  string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// DefaultLanding is where an authenticated user lands when they hit
	// the root path without a usable last-visited cookie.
	DefaultLanding string `env:"DEFAULT_LANDING" envDefault:"/dashboard"`

	// CleanupSchedule is a standard cron expression driving the janitor.
	CleanupSchedule string `env:"CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`

	Auth       Auth       `envPrefix:"AUTH_"`
	Attachment Attachment `envPrefix:"ATTACHMENT_"`
	GitStore   GitStore   `envPrefix:"GITSTORE_"`
	Minio      Minio      `envPrefix:"MINIO_"`
}

// Auth contains session and token parameters.
type Auth struct {
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"devsecret"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"` // 7 days, fixed at issuance
}

// Attachment contains file ingestion parameters.
type Attachment struct {
	// Backend selects where remote uploads go: "gitstore" or "minio".
	Backend string `env:"BACKEND" envDefault:"gitstore"`
	// HMACKey keys the one-way hash deriving the short name suffix from
	// a record number.
	HMACKey string `env:"HMAC_KEY" envDefault:"devhmackey"`
}

// GitStore contains credentials for the Git-hosted content store.
type GitStore struct {
	BaseURL  string `env:"BASE_URL" envDefault:"https://api.github.com"`
	Token    string `env:"TOKEN"`
	Owner    string `env:"OWNER"`
	Repo     string `env:"REPO"`
	Branch   string `env:"BRANCH" envDefault:"main"`
	BasePath string `env:"BASE_PATH" envDefault:"lampiran"`
}

// Minio contains object storage parameters.
type Minio struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"qms-lampiran"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

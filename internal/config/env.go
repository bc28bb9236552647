package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs, constructed once at startup and
// passed into component constructors. No ambient globals.
type Config struct {
	Environment string
	Host        string
	Port        string

	// DatabaseURL selects Postgres when set; otherwise SQLitePath is used.
	DatabaseURL string
	SQLitePath  string

	RedisURL       string
	RedisKeyPrefix string

	Storage StorageConfig

	// Local scratch/fallback directories.
	UploadDir string
	OutputDir string

	// RetentionWindow is how long completed segments stay available before
	// the sweeper may delete them. Single constant, not per-plan.
	RetentionWindow time.Duration
	SweepInterval   time.Duration
	SignedURLTTL    time.Duration
	EncodeTimeout   time.Duration
}

// StorageConfig configures the S3-compatible object store. When Endpoint is
// empty the service falls back to local-disk output.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether remote object storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are fine; variables may be set system-wide.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}
	return nil
}

// FromEnv builds the Config from environment variables with sensible defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        getEnv("PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "data/videosplit.db"),

		RedisURL:       os.Getenv("REDIS_URL"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "videosplit"),

		Storage: StorageConfig{
			Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
			AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:    getEnv("STORAGE_BUCKET", "videosplit-segments"),
			UseSSL:    os.Getenv("STORAGE_USE_SSL") == "true",
		},

		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		OutputDir: getEnv("OUTPUT_DIR", "outputs"),
	}

	var err error
	if cfg.RetentionWindow, err = getDuration("RETENTION_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.SignedURLTTL, err = getDuration("SIGNED_URL_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.EncodeTimeout, err = getDuration("ENCODE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.Storage.Enabled() {
		if cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
			return nil, fmt.Errorf("STORAGE_ENDPOINT is set but STORAGE_ACCESS_KEY/STORAGE_SECRET_KEY are missing")
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	// Accept either a Go duration ("30m") or a bare number of seconds.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

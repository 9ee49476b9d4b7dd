package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Asset sources.
const (
	SourceFirestore = "firestore"
	SourcePostgres  = "postgres"
	SourceFile      = "file"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                string
	GinMode             string
	LogLevel            string
	AssetSource         string
	FirebaseProjectID   string
	FirebaseCredsBase64 string
	FirebaseCredsFile   string
	AssetsCollection    string
	DatabaseURL         string
	AssetsFile          string
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	ReportCacheTTL      time.Duration
	SnapshotSchedule    string
	AllowedOrigins      string
}

// Load reads environment variables into a Config with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "release"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		AssetSource:         strings.ToLower(getEnv("ASSET_SOURCE", SourceFirestore)),
		FirebaseProjectID:   strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),
		FirebaseCredsBase64: strings.TrimSpace(os.Getenv("FIREBASE_CREDS_BASE64")),
		FirebaseCredsFile:   strings.TrimSpace(os.Getenv("FIREBASE_CREDS_FILE")),
		AssetsCollection:    getEnv("ASSETS_COLLECTION", "resources"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		AssetsFile:          getEnv("ASSETS_FILE", "testdata/assets.yaml"),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		SnapshotSchedule:    getEnv("SNAPSHOT_SCHEDULE", "@every 6h"),
		AllowedOrigins:      strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")),
	}

	db, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	cfg.RedisDB = db

	ttl, err := parseDurationEnv("REPORT_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse REPORT_CACHE_TTL: %w", err)
	}
	cfg.ReportCacheTTL = ttl

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures the fields required by the selected asset source are present.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.ReportCacheTTL < 0 {
		return errors.New("REPORT_CACHE_TTL must not be negative")
	}
	if c.CacheEnabled() && c.ReportCacheTTL == 0 {
		return errors.New("REPORT_CACHE_TTL must be positive when REDIS_ADDR is set")
	}
	switch c.AssetSource {
	case SourceFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
		if c.FirebaseCredsBase64 == "" && c.FirebaseCredsFile == "" {
			return errors.New("provide FIREBASE_CREDS_BASE64 or FIREBASE_CREDS_FILE for Firestore auth")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when ASSET_SOURCE=postgres")
		}
	case SourceFile:
		if c.AssetsFile == "" {
			return errors.New("ASSETS_FILE is required when ASSET_SOURCE=file")
		}
	default:
		return fmt.Errorf("unknown ASSET_SOURCE %q (want %s, %s or %s)", c.AssetSource, SourceFirestore, SourcePostgres, SourceFile)
	}
	return nil
}

// CacheEnabled reports whether a Redis report cache is configured.
func (c Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// FirebaseCredentialsJSON returns the service account JSON bytes and the source used.
func (c Config) FirebaseCredentialsJSON() ([]byte, string, error) {
	if c.FirebaseCredsBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.FirebaseCredsBase64)
		if err != nil {
			return nil, "base64", fmt.Errorf("decode FIREBASE_CREDS_BASE64: %w", err)
		}
		return decoded, "base64", nil
	}
	if c.FirebaseCredsFile != "" {
		data, err := os.ReadFile(c.FirebaseCredsFile)
		if err != nil {
			return nil, "file", fmt.Errorf("read FIREBASE_CREDS_FILE: %w", err)
		}
		return data, "file", nil
	}
	return nil, "", errors.New("no firebase credentials found")
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
}

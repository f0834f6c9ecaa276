package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings. It is loaded once in main and
// passed down; no component reads the environment after startup.
type Config struct {
	DatabaseURL    string `yaml:"database_url"`
	HTTPAddr       string `yaml:"http_addr"`
	JWTSecret      string `yaml:"jwt_secret"`
	StorageRoot    string `yaml:"storage_root"`
	DeleteAfterOK  bool   `yaml:"delete_after_ok"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Load reads configuration from .env (if present), environment variables
// and an optional yaml file pointed at by MEDIDAS_CONFIG.
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		StorageRoot:    getenvDefault("INGESTION_STORAGE_ROOT", filepath.FromSlash("data/ingestion")),
		DeleteAfterOK:  getenvBoolDefault("INGESTION_DELETE_AFTER_OK", true),
		MaxUploadBytes: getenvInt64Default("INGESTION_MAX_UPLOAD_BYTES", 32<<20),
	}

	if path := os.Getenv("MEDIDAS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: AUTH_JWT_SECRET is required")
	}
	if cfg.StorageRoot == "" {
		return cfg, errors.New("config: storage root required")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

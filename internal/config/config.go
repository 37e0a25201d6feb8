package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RegistrationOpen  = "open"
	RegistrationAdmin = "admin"

	StorageLocal      = "local"
	StorageCloudinary = "cloudinary"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	CORSEnabled    bool
	AllowedOrigins []string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTTTL    time.Duration

	RegistrationMode string
	AdminPassword    string

	MeiliSearchHost string
	MeiliMasterKey  string

	StorageDriver          string
	UploadDir              string
	UploadMaxBytes         int64
	CloudinaryUploadFolder string

	RateLimitRequisition time.Duration
	RateLimitLogin       time.Duration
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RegistrationMode: strings.ToLower(getEnv("REGISTRATION_MODE", RegistrationOpen)),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "admin123"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		StorageDriver:          strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
		UploadDir:              getEnv("UPLOAD_DIR", "uploads"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "pera"),
	}

	var err error
	cfg.CORSEnabled, err = strconv.ParseBool(getEnv("CORS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid CORS_ENABLED: %w", err)
	}
	cfg.JWTTTL, err = parseDuration(getEnv("JWT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.UploadMaxBytes, err = strconv.ParseInt(getEnv("UPLOAD_MAX_BYTES", "10485760"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_MAX_BYTES: %w", err)
	}
	cfg.RateLimitRequisition, err = parseDuration(getEnv("RATE_LIMIT_REQUISITION", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REQUISITION: %w", err)
	}
	cfg.RateLimitLogin, err = parseDuration(getEnv("RATE_LIMIT_LOGIN", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN: %w", err)
	}

	switch cfg.RegistrationMode {
	case RegistrationOpen, RegistrationAdmin:
	default:
		return nil, fmt.Errorf("invalid REGISTRATION_MODE %q", cfg.RegistrationMode)
	}
	switch cfg.StorageDriver {
	case StorageLocal, StorageCloudinary:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET is required in %s", cfg.AppEnv)
		}
		cfg.JWTSecret = "pera-development-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

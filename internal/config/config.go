package config

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

// StorageQuotaBytes is the fixed per-user storage ceiling shown on the
// dashboard. It is not enforced against uploads.
const StorageQuotaBytes int64 = 10 << 30 // 10 GiB

type S3Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	PublicBaseURL   string
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	DatabaseURL string
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	Environment string
	FrontendURL string
	CorsConfig  cors.Options
	S3          S3Config
	Google      GoogleOAuthConfig
}

func (c *Config) IsProd() bool {
	return c.Environment == "production"
}

// Load reads the .env file (if any) plus the process environment and builds
// the process configuration. The JWT secret has no fallback: a process
// without one cannot issue or verify sessions and must not start.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Info("no env file found, using process environment", "file", envFile)
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}

	frontend := getEnv("FRONTEND_URL", "http://localhost:5173")

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   secret,
		TokenTTL:    getHoursEnv("TOKEN_TTL_HOURS", 7*24),
		Environment: getEnv("ENV", "development"),
		FrontendURL: frontend,
		CorsConfig:  corsConfig(frontend),
		S3: S3Config{
			AccountID:       getEnv("S3_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("S3_BUCKET_NAME", ""),
			Region:          getEnv("S3_REGION", "auto"),
			PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Google: GoogleOAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/auth/google/callback"),
		},
	}, nil
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getHoursEnv(key string, fallbackHours int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if hours, err := strconv.Atoi(value); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return time.Duration(fallbackHours) * time.Hour
}

func corsConfig(frontend string) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{frontend},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}

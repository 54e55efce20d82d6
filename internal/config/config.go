package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

const (
	MediaBackendDisk = "disk"
	MediaBackendR2   = "r2"
)

const devJWTSecret = "not-so-secret-now-is-it?"

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	PublicBaseURL   string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether Google sign-in has been configured.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type Config struct {
	DB_URL      string
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	Environment string
	BaseURL     string

	UploadDir      string
	MediaBackend   string
	MaxUploadBytes int64
	OpTimeout      time.Duration

	// UniformLoginErrors hides whether a username exists by answering every
	// failed login with the same message.
	UniformLoginErrors bool

	CorsConfig cors.Options
	R2         R2Config
	Google     GoogleConfig
}

// IsProduction reports whether the service runs with ENV=production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the optional env file and builds the configuration from the
// process environment.
func Load() (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		slog.Debug("no env file found", slog.String("file", envFile))
	}

	ttl, err := getDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	opTimeout, err := getDuration("OP_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxUploadMB, err := getInt("MAX_UPLOAD_MB", 10)
	if err != nil {
		return Config{}, err
	}
	uniform, err := getBool("LOGIN_UNIFORM_ERRORS", true)
	if err != nil {
		return Config{}, err
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:5173"), "/")
	port := getEnv("PORT", "4000")

	cfg := Config{
		DB_URL:             getEnv("DB_URL", ""),
		Port:               port,
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTL:           ttl,
		Environment:        getEnv("ENV", "development"),
		BaseURL:            baseURL,
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		MediaBackend:       strings.ToLower(getEnv("MEDIA_BACKEND", MediaBackendDisk)),
		MaxUploadBytes:     int64(maxUploadMB) << 20,
		OpTimeout:          opTimeout,
		UniformLoginErrors: uniform,
		CorsConfig:         CorsConfig(baseURL),
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			Region:          getEnv("R2_REGION", "auto"),
			PublicBaseURL:   getEnv("R2_PUBLIC_BASE_URL", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:"+port+"/api/v1/auth/google/callback"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	switch c.MediaBackend {
	case MediaBackendDisk:
	case MediaBackendR2:
		if c.R2.AccountID == "" || c.R2.BucketName == "" {
			return errors.New("R2_ACCOUNT_ID and R2_BUCKET_NAME are required for the r2 media backend")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	return nil
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func CorsConfig(baseURL string) cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{baseURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}

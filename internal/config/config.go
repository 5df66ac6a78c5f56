// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the API server reads at boot.
type Config struct {
	Port        string
	Environment string
	ClientURL   string

	Database DatabaseConfig

	JWTSecret string
	JWTTTL    time.Duration
	OTPTTL    time.Duration

	Email  EmailConfig
	Media  MediaConfig
	Gemini GeminiConfig

	RedisHost        string
	RedisPort        string
	RedisPassword    string
	ElasticsearchURL string

	OTelEnabled      bool
	OTelEndpoint     string
	OTelSamplingRate float64

	LogLevel string
	LogFile  string

	// Services that must be reachable at boot: database, redis,
	// elasticsearch, gemini, storage
	RequiredServices []string
}

// DatabaseConfig selects and addresses the SQL backend.
type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type EmailConfig struct {
	Provider  string // "ses" or "log"
	AWSRegion string
	FromEmail string
	FromName  string
	ClientURL string
}

type MediaConfig struct {
	Provider      string // "cloudinary", "s3" or "local"
	CloudinaryURL string
	AWSRegion     string
	S3Bucket      string
	CDNBaseURL    string
	UploadDir     string
	PublicBaseURL string
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Load reads the configuration. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8787"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		ClientURL:   getEnvOrDefault("CLIENT_URL", "http://localhost:5173"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
			URL:        os.Getenv("DATABASE_URL"),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getEnvOrDefault("DB_NAME", "echoes"),
			SSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "echoes.db"),
		},
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    getDurationOrDefault("JWT_TTL", 7*24*time.Hour),
		OTPTTL:    getDurationOrDefault("OTP_TTL", 10*time.Minute),
		Email: EmailConfig{
			Provider:  strings.ToLower(getEnvOrDefault("EMAIL_PROVIDER", "log")),
			AWSRegion: getEnvOrDefault("AWS_REGION", "us-east-1"),
			FromEmail: getEnvOrDefault("SES_FROM_EMAIL", "no-reply@echoesofart.app"),
			FromName:  getEnvOrDefault("SES_FROM_NAME", "Echoes of Art"),
		},
		Media: MediaConfig{
			Provider:      strings.ToLower(getEnvOrDefault("MEDIA_PROVIDER", "local")),
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			AWSRegion:     getEnvOrDefault("AWS_REGION", "us-east-1"),
			S3Bucket:      os.Getenv("AWS_S3_BUCKET"),
			CDNBaseURL:    os.Getenv("CDN_BASE_URL"),
			UploadDir:     getEnvOrDefault("UPLOAD_DIR", "./uploads"),
			PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:8787"),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: getDurationOrDefault("GEMINI_TIMEOUT", 10*time.Second),
		},
		RedisHost:        os.Getenv("REDIS_HOST"),
		RedisPort:        getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),
		OTelEnabled:      isTruthy(os.Getenv("OTEL_ENABLED")),
		OTelEndpoint:     getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		OTelSamplingRate: getFloatOrDefault("OTEL_SAMPLING_RATE", 1.0),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:          os.Getenv("LOG_FILE"),
		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
	}
	cfg.Email.ClientURL = cfg.ClientURL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable is required")
		}
		c.JWTSecret = "echoes-dev-secret"
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Media.Provider {
	case "local":
	case "cloudinary":
		if c.Media.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when MEDIA_PROVIDER=cloudinary")
		}
	case "s3":
		if c.Media.S3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required when MEDIA_PROVIDER=s3")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_PROVIDER %q", c.Media.Provider)
	}
	switch c.Email.Provider {
	case "ses", "log":
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Email.Provider)
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

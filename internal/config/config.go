package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the SkyVault API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Quota    QuotaConfig
	Storage  StorageConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// QuotaConfig holds the monthly per-user upload cap.
type QuotaConfig struct {
	MonthlyLimitBytes int64
}

// StorageConfig describes the configured object-storage providers.
// ProviderOrder is the failover order; unknown names are rejected at startup.
type StorageConfig struct {
	ProviderOrder  []string
	AttemptTimeout time.Duration
	S3             S3Config
	Azure          AzureConfig
	MinIO          MinIOConfig
}

// S3Config carries AWS S3 (or S3-compatible) credentials and bucket details.
// An empty AccessKeyID, SecretAccessKey or Bucket leaves the provider
// permanently unavailable instead of failing startup.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	UsePathStyle    bool
	SignedURLTTL    time.Duration
}

// AzureConfig carries Azure Blob Storage account details.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	SASTokenTTL time.Duration
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("SKYVAULT_API_HOST", "0.0.0.0"),
			Port:         getInt("SKYVAULT_API_PORT", 8080),
			ReadTimeout:  getDuration("SKYVAULT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SKYVAULT_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SKYVAULT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "skyvault_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "skyvault"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		Auth: loadAuthConfig(),
		Metrics: MetricsConfig{
			PrometheusPath: getString("SKYVAULT_METRICS_PATH", "/metrics"),
		},
		Quota: QuotaConfig{
			MonthlyLimitBytes: getInt64("QUOTA_MONTHLY_LIMIT_BYTES", 500*1024*1024),
		},
		Storage: StorageConfig{
			ProviderOrder:  splitList(getString("STORAGE_PROVIDER_ORDER", "s3,azure,minio")),
			AttemptTimeout: getDuration("STORAGE_ATTEMPT_TIMEOUT", 30*time.Second),
			S3: S3Config{
				Region:          getString("AWS_REGION", "us-east-2"),
				AccessKeyID:     getString("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getString("AWS_SECRET_ACCESS_KEY", ""),
				Bucket:          getString("AWS_S3_BUCKET_NAME", ""),
				Endpoint:        getString("AWS_ENDPOINT", ""),
				UsePathStyle:    getBool("AWS_S3_USE_PATH_STYLE", false),
				SignedURLTTL:    getDuration("AWS_SIGNED_URL_TTL", time.Hour),
			},
			Azure: AzureConfig{
				AccountName: getString("AZURE_STORAGE_ACCOUNT", ""),
				AccountKey:  getString("AZURE_STORAGE_KEY", ""),
				Container:   getString("AZURE_STORAGE_CONTAINER", "files"),
				SASTokenTTL: getDuration("AZURE_SAS_TOKEN_TTL", time.Hour),
			},
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", ""),
				AccessKeyID:     getString("MINIO_ROOT_USER", ""),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", ""),
				Bucket:          getString("MINIO_BUCKET", "files"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
		},
	}

	if cfg.Quota.MonthlyLimitBytes <= 0 {
		return Config{}, fmt.Errorf("QUOTA_MONTHLY_LIMIT_BYTES must be positive, got %d", cfg.Quota.MonthlyLimitBytes)
	}
	if len(cfg.Storage.ProviderOrder) == 0 {
		return Config{}, fmt.Errorf("STORAGE_PROVIDER_ORDER must name at least one provider")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadAuthConfig() AuthConfig {
	cost := getInt("SKYVAULT_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		TokenSecret: getString("SKYVAULT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		TokenTTL:    getDuration("SKYVAULT_AUTH_TOKEN_TTL", 24*time.Hour),
		BcryptCost:  cost,
	}
}

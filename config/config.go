package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Redis        RedisConfig
	S3           S3Config
	SMTP         SMTPConfig
	TryOn        TryOnConfig
	Notification NotificationConfig
	Store        StoreConfig
	Scheduler    SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig is optional: an empty Host disables the dashboard cache and
// the try-on rate limit.
type RedisConfig struct {
	Host              string
	Port              string
	Password          string
	DB                int
	DashboardCacheTTL time.Duration
	TryOnPerMinute    int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SMTPConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	ReportRecipient string // staff mailbox for the nightly BI report
}

type TryOnConfig struct {
	BaseURL      string
	APIToken     string
	ModelVersion string
	Timeout      time.Duration
	PollInterval time.Duration
}

type NotificationConfig struct {
	SendTimeout time.Duration
}

type StoreConfig struct {
	Name              string
	OrderNumberPrefix string
}

type SchedulerConfig struct {
	Enabled        bool
	ReportCronSpec string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "moda"),
			Password: getEnv("DB_PASSWORD", "moda"),
			DBName:   getEnv("DB_NAME", "moda"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:              getEnv("REDIS_HOST", ""),
			Port:              getEnv("REDIS_PORT", "6379"),
			Password:          getEnv("REDIS_PASSWORD", ""),
			DB:                parseInt(getEnv("REDIS_DB", "0"), 0),
			DashboardCacheTTL: parseDuration(getEnv("REDIS_DASHBOARD_TTL", "5m"), 5*time.Minute),
			TryOnPerMinute:    parseInt(getEnv("TRYON_RATE_PER_MINUTE", "5"), 5),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "sa-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "moda-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:            getEnv("SMTP_HOST", ""),
			Port:            parseInt(getEnv("SMTP_PORT", "587"), 587),
			Username:        getEnv("SMTP_USERNAME", ""),
			Password:        getEnv("SMTP_PASSWORD", ""),
			From:            getEnv("SMTP_FROM", "MODA <no-reply@moda.cl>"),
			ReportRecipient: getEnv("SMTP_REPORT_RECIPIENT", ""),
		},
		TryOn: TryOnConfig{
			BaseURL:      getEnv("TRYON_BASE_URL", "https://api.replicate.com/v1"),
			APIToken:     getEnv("TRYON_API_TOKEN", ""),
			ModelVersion: getEnv("TRYON_MODEL_VERSION", ""),
			Timeout:      parseDuration(getEnv("TRYON_TIMEOUT", "90s"), 90*time.Second),
			PollInterval: parseDuration(getEnv("TRYON_POLL_INTERVAL", "2s"), 2*time.Second),
		},
		Notification: NotificationConfig{
			SendTimeout: parseDuration(getEnv("NOTIFICATION_SEND_TIMEOUT", "10s"), 10*time.Second),
		},
		Store: StoreConfig{
			Name:              getEnv("STORE_NAME", "MODA"),
			OrderNumberPrefix: getEnv("ORDER_NUMBER_PREFIX", "MODA"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        parseBool(getEnv("SCHEDULER_ENABLED", "true")),
			ReportCronSpec: getEnv("REPORT_CRON_SPEC", "0 6 * * *"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c *SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported notification providers.
const (
	NotifyNoop  = "noop"
	NotifySES   = "ses"
	NotifyKafka = "kafka"
	NotifyNATS  = "nats"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	Environment string         `yaml:"environment" env:"GO_ENV" env-default:"development"`
	LogLevel    string         `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort    int            `yaml:"http_port" env:"MEETINGS_HTTP_PORT" env-default:"8080"`
	DisplayZone string         `yaml:"display_zone" env:"MEETINGS_DISPLAY_ZONE" env-default:"Africa/Nairobi"`
	Database    DatabaseConfig `yaml:"database"`
	Auth        AuthConfig     `yaml:"auth"`
	Media       MediaConfig    `yaml:"media"`
	Notify      NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects and addresses the relational store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver" env:"MEETINGS_DB_DRIVER" env-default:"sqlite"`
	SQLiteDSN   string `yaml:"sqlite_dsn" env:"MEETINGS_SQLITE_DSN" env-default:"file:meetings.db"`
	PostgresDSN string `yaml:"postgres_dsn" env:"MEETINGS_POSTGRES_DSN"`
}

// AuthConfig holds session and API token settings.
type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl" env:"MEETINGS_SESSION_TTL" env-default:"24h"`
	JWTSecret  string        `yaml:"jwt_secret" env:"MEETINGS_JWT_SECRET"`
	JWTTTL     time.Duration `yaml:"jwt_ttl" env:"MEETINGS_JWT_TTL" env-default:"1h"`
}

// MediaConfig controls where uploaded minutes are written.
type MediaConfig struct {
	Root           string `yaml:"root" env:"MEETINGS_MEDIA_ROOT" env-default:"media"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"MEETINGS_MAX_UPLOAD_BYTES" env-default:"10485760"`
}

// NotifyConfig selects the booking notification channel.
type NotifyConfig struct {
	Provider string      `yaml:"provider" env:"MEETINGS_NOTIFY_PROVIDER" env-default:"noop"`
	SES      SESConfig   `yaml:"ses"`
	Kafka    KafkaConfig `yaml:"kafka"`
	NATS     NATSConfig  `yaml:"nats"`
}

// SESConfig holds AWS SES credentials and sender identity.
type SESConfig struct {
	Region          string `yaml:"region" env:"MEETINGS_SES_REGION" env-default:"us-east-1"`
	AccessKeyID     string `yaml:"access_key_id" env:"MEETINGS_SES_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MEETINGS_SES_SECRET_ACCESS_KEY"`
	FromAddress     string `yaml:"from_address" env:"MEETINGS_SES_FROM_ADDRESS"`
	FromName        string `yaml:"from_name" env:"MEETINGS_SES_FROM_NAME" env-default:"Meeting Rooms"`
}

// KafkaConfig addresses the booking event topic.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"MEETINGS_KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"MEETINGS_KAFKA_TOPIC" env-default:"meetings.bookings"`
}

// NATSConfig addresses the booking event subject prefix.
type NATSConfig struct {
	URL     string `yaml:"url" env:"MEETINGS_NATS_URL"`
	Subject string `yaml:"subject" env:"MEETINGS_NATS_SUBJECT" env-default:"meetings.bookings"`
}

// IsProduction reports whether the process runs with GO_ENV=production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by MEETINGS_CONFIG_FILE, and the process environment, in that order
// of increasing precedence.
func Load() (Config, error) {
	if !strings.EqualFold(os.Getenv("GO_ENV"), "production") {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn(".env file could not be loaded", "error", err)
		}
	}

	var cfg Config
	if path := strings.TrimSpace(os.Getenv("MEETINGS_CONFIG_FILE")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 4)

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Notify.Provider = strings.ToLower(strings.TrimSpace(c.Notify.Provider))

	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		missing = append(missing, "MEETINGS_JWT_SECRET")
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "MEETINGS_HTTP_PORT")
	}
	if c.Auth.SessionTTL <= 0 {
		invalid = append(invalid, "MEETINGS_SESSION_TTL")
	}
	if c.Auth.JWTTTL <= 0 {
		invalid = append(invalid, "MEETINGS_JWT_TTL")
	}
	if c.Media.MaxUploadBytes <= 0 {
		invalid = append(invalid, "MEETINGS_MAX_UPLOAD_BYTES")
	}
	if _, err := time.LoadLocation(c.DisplayZone); err != nil || strings.TrimSpace(c.DisplayZone) == "" {
		invalid = append(invalid, "MEETINGS_DISPLAY_ZONE")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.SQLiteDSN) == "" {
			missing = append(missing, "MEETINGS_SQLITE_DSN")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.PostgresDSN) == "" {
			missing = append(missing, "MEETINGS_POSTGRES_DSN")
		}
	default:
		invalid = append(invalid, "MEETINGS_DB_DRIVER")
	}

	switch c.Notify.Provider {
	case NotifyNoop:
	case NotifySES:
		if strings.TrimSpace(c.Notify.SES.FromAddress) == "" {
			missing = append(missing, "MEETINGS_SES_FROM_ADDRESS")
		}
		if strings.TrimSpace(c.Notify.SES.AccessKeyID) == "" {
			missing = append(missing, "MEETINGS_SES_ACCESS_KEY_ID")
		}
		if strings.TrimSpace(c.Notify.SES.SecretAccessKey) == "" {
			missing = append(missing, "MEETINGS_SES_SECRET_ACCESS_KEY")
		}
	case NotifyKafka:
		if len(c.Notify.Kafka.Brokers) == 0 {
			missing = append(missing, "MEETINGS_KAFKA_BROKERS")
		}
	case NotifyNATS:
		if strings.TrimSpace(c.Notify.NATS.URL) == "" {
			missing = append(missing, "MEETINGS_NATS_URL")
		}
	default:
		invalid = append(invalid, "MEETINGS_NOTIFY_PROVIDER")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

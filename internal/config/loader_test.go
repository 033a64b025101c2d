package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"GO_ENV",
	"LOG_LEVEL",
	"MEETINGS_CONFIG_FILE",
	"MEETINGS_HTTP_PORT",
	"MEETINGS_DISPLAY_ZONE",
	"MEETINGS_DB_DRIVER",
	"MEETINGS_SQLITE_DSN",
	"MEETINGS_POSTGRES_DSN",
	"MEETINGS_SESSION_TTL",
	"MEETINGS_JWT_SECRET",
	"MEETINGS_JWT_TTL",
	"MEETINGS_MEDIA_ROOT",
	"MEETINGS_MAX_UPLOAD_BYTES",
	"MEETINGS_NOTIFY_PROVIDER",
	"MEETINGS_SES_FROM_ADDRESS",
	"MEETINGS_SES_ACCESS_KEY_ID",
	"MEETINGS_SES_SECRET_ACCESS_KEY",
	"MEETINGS_KAFKA_BROKERS",
	"MEETINGS_KAFKA_TOPIC",
	"MEETINGS_NATS_URL",
	"MEETINGS_NATS_SUBJECT",
}

// clearEnv unsets every variable the loader reads and restores them when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv("GO_ENV", "production")
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "super-secret")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.HTTPPort)
		assert.Equal(t, "Africa/Nairobi", cfg.DisplayZone)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "file:meetings.db", cfg.Database.SQLiteDSN)
		assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
		assert.Equal(t, time.Hour, cfg.Auth.JWTTTL)
		assert.Equal(t, int64(10<<20), cfg.Media.MaxUploadBytes)
		assert.Equal(t, NotifyNoop, cfg.Notify.Provider)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("errors when the jwt secret is missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, "required environment variables are not set: MEETINGS_JWT_SECRET", err.Error())
	})

	t.Run("rejects unknown drivers and zones", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "s")
		t.Setenv("MEETINGS_DB_DRIVER", "oracle")
		t.Setenv("MEETINGS_DISPLAY_ZONE", "Mars/Olympus")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEETINGS_DB_DRIVER")
		assert.Contains(t, err.Error(), "MEETINGS_DISPLAY_ZONE")
	})

	t.Run("postgres requires a dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "s")
		t.Setenv("MEETINGS_DB_DRIVER", "Postgres")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEETINGS_POSTGRES_DSN")

		t.Setenv("MEETINGS_POSTGRES_DSN", "postgres://localhost/meetings?sslmode=disable")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	})

	t.Run("kafka provider splits brokers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "s")
		t.Setenv("MEETINGS_NOTIFY_PROVIDER", "kafka")
		t.Setenv("MEETINGS_KAFKA_BROKERS", "k1:9092,k2:9092")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.Kafka.Brokers)
		assert.Equal(t, "meetings.bookings", cfg.Notify.Kafka.Topic)
	})

	t.Run("ses provider requires static credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "s")
		t.Setenv("MEETINGS_NOTIFY_PROVIDER", "ses")
		t.Setenv("MEETINGS_SES_FROM_ADDRESS", "rooms@example.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEETINGS_SES_ACCESS_KEY_ID")
		assert.Contains(t, err.Error(), "MEETINGS_SES_SECRET_ACCESS_KEY")

		t.Setenv("MEETINGS_SES_ACCESS_KEY_ID", "AKID")
		t.Setenv("MEETINGS_SES_SECRET_ACCESS_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, NotifySES, cfg.Notify.Provider)
	})

	t.Run("nats provider requires a url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETINGS_JWT_SECRET", "s")
		t.Setenv("MEETINGS_NOTIFY_PROVIDER", "NATS")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MEETINGS_NATS_URL")

		t.Setenv("MEETINGS_NATS_URL", "nats://127.0.0.1:4222")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, NotifyNATS, cfg.Notify.Provider)
		assert.Equal(t, "meetings.bookings", cfg.Notify.NATS.Subject)
	})

	t.Run("reads a yaml file when configured", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "meetings.yaml")
		content := "http_port: 9090\n" +
			"display_zone: Europe/Berlin\n" +
			"database:\n  driver: postgres\n  postgres_dsn: postgres://db/meetings\n" +
			"auth:\n  jwt_secret: from-file\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("MEETINGS_CONFIG_FILE", path)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.HTTPPort)
		assert.Equal(t, "Europe/Berlin", cfg.DisplayZone)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	})
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
http:
  address: ":8081"
database:
  host: db
  user: travel
  password: secret
  name: travel
kafka:
  brokers: ["kafka:9092"]
auth:
  jwt_secret: dev-secret
documents:
  font_path: /usr/share/fonts/truetype/nanum/NanumGothic.ttf
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.HTTP.Address)
	assert.Equal(t, ":9090", cfg.GRPC.Address)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, "travel.notifications", cfg.Kafka.NotificationsTopic)
	assert.Equal(t, 300, cfg.Pricing.OptionsCacheTTLSeconds)
	assert.Equal(t, "host=db port=5432 user=travel password=secret dbname=travel sslmode=disable", cfg.Database.DSN())
	assert.NoError(t, cfg.Validate())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http: ["))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	env := map[string]string{
		"TRAVEL_DB_PORT":       "6543",
		"TRAVEL_KAFKA_BROKERS": "k1:9092,k2:9092",
		"TRAVEL_EVENTS_DRIVER": "rabbitmq",
		"TRAVEL_RABBITMQ_URL":  "amqp://guest:guest@mq:5672/",
		"TRAVEL_FONT_PATH":     "/fonts/NotoSansKR.ttf",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	require.NoError(t, cfg.applyEnv(lookup))
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "rabbitmq", cfg.Events.Driver)
	assert.Equal(t, "/fonts/NotoSansKR.ttf", cfg.Documents.FontPath)
	assert.NoError(t, cfg.Validate())

	env["TRAVEL_DB_PORT"] = "not-a-port"
	assert.Error(t, cfg.applyEnv(lookup))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"missing rabbit url", func(c *Config) { c.Events.Driver = "rabbitmq" }, "rabbitmq.url"},
		{"unknown driver", func(c *Config) { c.Events.Driver = "nats" }, "unknown events.driver"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"missing font", func(c *Config) { c.Documents.FontPath = "" }, "documents.font_path"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(sample))
			require.NoError(t, err)
			tc.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	t.Setenv("TRAVEL_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

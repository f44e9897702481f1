package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Events    EventsConfig    `yaml:"events"`
	Auth      AuthConfig      `yaml:"auth"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Documents DocumentsConfig `yaml:"documents"`
	Log       LogConfig       `yaml:"log"`
}

type HTTPConfig struct {
	Address             string `yaml:"address"`
	SwaggerDir          string `yaml:"swagger_dir"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

// EventsConfig selects the broker used for domain events: "kafka", "rabbitmq" or "none".
type EventsConfig struct {
	Driver string `yaml:"driver"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type PricingConfig struct {
	OptionsCacheTTLSeconds int `yaml:"options_cache_ttl_seconds"`
	ConfirmLockSeconds     int `yaml:"confirm_lock_seconds"`
}

type DocumentsConfig struct {
	CompanyName string `yaml:"company_name"`
	FontPath    string `yaml:"font_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// LoadConfig reads the YAML file at path. A .env file in the working directory
// is loaded first and TRAVEL_* variables override file values.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML and fills defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ReadTimeoutSeconds == 0 {
		c.HTTP.ReadTimeoutSeconds = 15
	}
	if c.HTTP.WriteTimeoutSeconds == 0 {
		c.HTTP.WriteTimeoutSeconds = 30
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "kafka"
	}
	if c.Kafka.EventsTopic == "" {
		c.Kafka.EventsTopic = "travel.events"
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "travel.notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "travel-worker"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "travel"
	}
	if c.RabbitMQ.Queue == "" {
		c.RabbitMQ.Queue = "travel-worker.notifications"
	}
	if c.Pricing.OptionsCacheTTLSeconds == 0 {
		c.Pricing.OptionsCacheTTLSeconds = 300
	}
	if c.Pricing.ConfirmLockSeconds == 0 {
		c.Pricing.ConfirmLockSeconds = 30
	}
	if c.Documents.CompanyName == "" {
		c.Documents.CompanyName = "Travel Agency"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TRAVEL_HTTP_ADDRESS"); ok {
		c.HTTP.Address = v
	}
	if v, ok := lookup("TRAVEL_DB_HOST"); ok {
		c.Database.Host = v
	}
	if v, ok := lookup("TRAVEL_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAVEL_DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	if v, ok := lookup("TRAVEL_DB_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := lookup("TRAVEL_REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup("TRAVEL_KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := lookup("TRAVEL_RABBITMQ_URL"); ok {
		c.RabbitMQ.URL = v
	}
	if v, ok := lookup("TRAVEL_EVENTS_DRIVER"); ok {
		c.Events.Driver = v
	}
	if v, ok := lookup("TRAVEL_JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := lookup("TRAVEL_FONT_PATH"); ok {
		c.Documents.FontPath = v
	}
	if v, ok := lookup("TRAVEL_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Events.Driver {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("kafka.brokers is required when events.driver is kafka")
		}
	case "rabbitmq":
		if c.RabbitMQ.URL == "" {
			return errors.New("rabbitmq.url is required when events.driver is rabbitmq")
		}
	case "none":
	default:
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	// Customer names and service facets are Korean; the built-in PDF fonts have no Hangul.
	if c.Documents.FontPath == "" {
		return errors.New("documents.font_path is required")
	}
	return nil
}

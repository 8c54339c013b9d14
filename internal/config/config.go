package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"daily-habits-tracker/internal/daybound"

	"github.com/robfig/cron/v3"
	"go.uber.org/config"
	"go.uber.org/multierr"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DefaultSlackAPIURL is the Slack Web API base used for views.open / views.push
const DefaultSlackAPIURL = "https://slack.com/api/"

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Habits    HabitsConfig    `yaml:"habits"`
	Slack     SlackConfig     `yaml:"slack"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HabitsConfig struct {
	CutoffHour int `yaml:"cutoff_hour"`
	// Timezone is an IANA name; empty means the process local zone
	Timezone string `yaml:"timezone"`
}

type SlackConfig struct {
	WebhookURL    string        `yaml:"webhook_url"`
	AccessToken   string        `yaml:"access_token"`
	APIURL        string        `yaml:"api_url"`
	SigningSecret string        `yaml:"signing_secret"`
	Timeout       time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

type SchedulerConfig struct {
	Enabled bool          `yaml:"enabled"`
	Spec    string        `yaml:"spec"`
	Timeout time.Duration `yaml:"timeout"`
}

type HTTPConfig struct {
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

type GRPCConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// ConfigurationError aggregates every problem found while validating a Config
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Problems lists the individual validation failures
func (e *ConfigurationError) Problems() []error {
	return multierr.Errors(e.Err)
}

// Default returns the configuration used for keys absent from the YAML file
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Name:        "daily-habits",
			Environment: "development",
			Version:     "dev",
		},
		Habits: HabitsConfig{
			CutoffHour: 4,
		},
		Slack: SlackConfig{
			APIURL:  DefaultSlackAPIURL,
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "./data/habits.db",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "habits",
			SSLMode:  "disable",
			MaxConns: 5,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
			Spec:    "@every 3h",
			Timeout: time.Minute,
		},
		HTTP: HTTPConfig{
			Port:              8080,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		GRPC: GRPCConfig{
			Port: 9090,
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			LockTTL: 30 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "habit-events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from YAML file with environment variable overrides.
// An empty path falls back to $CONFIG_PATH and then ./config/base.yaml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getEnv("CONFIG_PATH", "./config/base.yaml")
	}

	provider, err := config.NewYAML(
		config.File(path),
		config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	cfg := Default()
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("CUTOFF_HOUR"); val != "" {
		fmt.Sscanf(val, "%d", &c.Habits.CutoffHour)
	}
	if val := os.Getenv("HABITS_TIMEZONE"); val != "" {
		c.Habits.Timezone = val
	}
	if val := os.Getenv("SLACK_WEBHOOK_URL"); val != "" {
		c.Slack.WebhookURL = val
	}
	if val := os.Getenv("SLACK_ACCESS_TOKEN"); val != "" {
		c.Slack.AccessToken = val
	}
	if val := os.Getenv("SLACK_SIGNING_SECRET"); val != "" {
		c.Slack.SigningSecret = val
	}
	if val := os.Getenv("STORAGE_DRIVER"); val != "" {
		c.Storage.Driver = val
	}
	if val := os.Getenv("SQLITE_PATH"); val != "" {
		c.Storage.SQLitePath = val
	}
	if val := os.Getenv("DATABASE_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DATABASE_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DATABASE_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DATABASE_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DATABASE_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DATABASE_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("KAFKA_BROKER"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}
}

// Validate reports every invalid or missing value as one *ConfigurationError
func (c *Config) Validate() error {
	var errs error

	if c.Slack.WebhookURL == "" {
		errs = multierr.Append(errs, fmt.Errorf("slack.webhook_url is required"))
	}
	if c.Slack.AccessToken == "" {
		errs = multierr.Append(errs, fmt.Errorf("slack.access_token is required"))
	}
	if err := daybound.ValidateCutoffHour(c.Habits.CutoffHour); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("habits.cutoff_hour: %w", err))
	}
	if _, err := c.Habits.Location(); err != nil {
		errs = multierr.Append(errs, err)
	}

	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = multierr.Append(errs, fmt.Errorf("storage.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("storage.driver %q is not one of postgres, sqlite, memory", c.Storage.Driver))
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.Spec); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("scheduler.spec %q: %w", c.Scheduler.Spec, err))
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("kafka.brokers is required when kafka is enabled"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = multierr.Append(errs, fmt.Errorf("redis.addr is required when redis is enabled"))
	}

	if errs != nil {
		return &ConfigurationError{Err: errs}
	}
	return nil
}

// Location resolves the configured timezone
func (h *HabitsConfig) Location() (*time.Location, error) {
	if h.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return nil, fmt.Errorf("habits.timezone %q: %w", h.Timezone, err)
	}
	return loc, nil
}

// GetDSN returns PostgreSQL connection string in URL format for pgx/v5
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

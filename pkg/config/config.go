package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"reservation_database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	OTel     OTelConfig     `mapstructure:"otel"`
	Services ServicesConfig `mapstructure:"services"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
}

// ServicesConfig holds the collaborators consulted before a seat is claimed
type ServicesConfig struct {
	EventServiceURL   string        `mapstructure:"event_service_url"`
	AuthServiceURL    string        `mapstructure:"auth_service_url"`
	ValidationTimeout time.Duration `mapstructure:"validation_timeout"`
	ValidationRetries int           `mapstructure:"validation_retries"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	Version     string `mapstructure:"version"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	DBName           string        `mapstructure:"dbname"`
	SSLMode          string        `mapstructure:"sslmode"`
	MaxConns         int           `mapstructure:"max_conns"`
	MinConns         int           `mapstructure:"min_conns"`
	AcquireTimeout   time.Duration `mapstructure:"acquire_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	ConnMaxLifetime  time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime  time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate      bool          `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// KafkaConfig holds Kafka/Redpanda connection settings
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	ClientID         string   `mapstructure:"client_id"`
	ReservationTopic string   `mapstructure:"reservation_topic"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ServiceName   string  `mapstructure:"service_name"`
	CollectorAddr string  `mapstructure:"collector_addr"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
}

// OutboxConfig holds the outbox relay schedule
type OutboxConfig struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Retention       time.Duration `mapstructure:"retention"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional; environment variables still apply without it
	_ = v.ReadInConfig()

	return load(v)
}

// LoadWithPath loads configuration from a specific path
func LoadWithPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "reservation-service")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8003)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Reservation database
	v.SetDefault("RESERVATION_DATABASE_HOST", "localhost")
	v.SetDefault("RESERVATION_DATABASE_PORT", 5432)
	v.SetDefault("RESERVATION_DATABASE_USER", "postgres")
	v.SetDefault("RESERVATION_DATABASE_PASSWORD", "postgres")
	v.SetDefault("RESERVATION_DATABASE_DBNAME", "reservation_db")
	v.SetDefault("RESERVATION_DATABASE_SSLMODE", "disable")
	v.SetDefault("RESERVATION_DATABASE_MAX_CONNS", 10)
	v.SetDefault("RESERVATION_DATABASE_MIN_CONNS", 1)
	v.SetDefault("RESERVATION_DATABASE_ACQUIRE_TIMEOUT", "10s")
	v.SetDefault("RESERVATION_DATABASE_STATEMENT_TIMEOUT", "5s")
	v.SetDefault("RESERVATION_DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("RESERVATION_DATABASE_CONN_MAX_IDLE_TIME", "30m")
	v.SetDefault("RESERVATION_DATABASE_AUTO_MIGRATE", false)

	// Redis defaults
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CLIENT_ID", "reservation-service")
	v.SetDefault("KAFKA_RESERVATION_TOPIC", "reservation-events")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "reservation-service")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	// Collaborators
	v.SetDefault("SERVICES_EVENT_SERVICE_URL", "http://event-service:8002/api/v1")
	v.SetDefault("SERVICES_AUTH_SERVICE_URL", "http://auth-service:8001/api/v1")
	v.SetDefault("SERVICES_VALIDATION_TIMEOUT", "10s")
	v.SetDefault("SERVICES_VALIDATION_RETRIES", 0)

	// Outbox relay
	v.SetDefault("OUTBOX_POLL_INTERVAL", "100ms")
	v.SetDefault("OUTBOX_BATCH_SIZE", 100)
	v.SetDefault("OUTBOX_RETRY_INTERVAL", "5s")
	v.SetDefault("OUTBOX_CLEANUP_INTERVAL", "1h")
	v.SetDefault("OUTBOX_RETENTION", "168h")
}

func bindConfig(v *viper.Viper, cfg *Config) {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")
	cfg.App.LogLevel = v.GetString("LOG_LEVEL")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Reservation database
	cfg.Database.Host = v.GetString("RESERVATION_DATABASE_HOST")
	cfg.Database.Port = v.GetInt("RESERVATION_DATABASE_PORT")
	cfg.Database.User = v.GetString("RESERVATION_DATABASE_USER")
	cfg.Database.Password = v.GetString("RESERVATION_DATABASE_PASSWORD")
	cfg.Database.DBName = v.GetString("RESERVATION_DATABASE_DBNAME")
	cfg.Database.SSLMode = v.GetString("RESERVATION_DATABASE_SSLMODE")
	cfg.Database.MaxConns = v.GetInt("RESERVATION_DATABASE_MAX_CONNS")
	cfg.Database.MinConns = v.GetInt("RESERVATION_DATABASE_MIN_CONNS")
	cfg.Database.AcquireTimeout = v.GetDuration("RESERVATION_DATABASE_ACQUIRE_TIMEOUT")
	cfg.Database.StatementTimeout = v.GetDuration("RESERVATION_DATABASE_STATEMENT_TIMEOUT")
	cfg.Database.ConnMaxLifetime = v.GetDuration("RESERVATION_DATABASE_CONN_MAX_LIFETIME")
	cfg.Database.ConnMaxIdleTime = v.GetDuration("RESERVATION_DATABASE_CONN_MAX_IDLE_TIME")
	cfg.Database.AutoMigrate = v.GetBool("RESERVATION_DATABASE_AUTO_MIGRATE")

	// Redis
	cfg.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Brokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")
	cfg.Kafka.ReservationTopic = v.GetString("KAFKA_RESERVATION_TOPIC")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")

	// Collaborators
	cfg.Services.EventServiceURL = strings.TrimRight(v.GetString("SERVICES_EVENT_SERVICE_URL"), "/")
	cfg.Services.AuthServiceURL = strings.TrimRight(v.GetString("SERVICES_AUTH_SERVICE_URL"), "/")
	cfg.Services.ValidationTimeout = v.GetDuration("SERVICES_VALIDATION_TIMEOUT")
	cfg.Services.ValidationRetries = v.GetInt("SERVICES_VALIDATION_RETRIES")

	// Outbox relay
	cfg.Outbox.PollInterval = v.GetDuration("OUTBOX_POLL_INTERVAL")
	cfg.Outbox.BatchSize = v.GetInt("OUTBOX_BATCH_SIZE")
	cfg.Outbox.RetryInterval = v.GetDuration("OUTBOX_RETRY_INTERVAL")
	cfg.Outbox.CleanupInterval = v.GetDuration("OUTBOX_CLEANUP_INTERVAL")
	cfg.Outbox.Retention = v.GetDuration("OUTBOX_RETENTION")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errors.New("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("RESERVATION_DATABASE_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("RESERVATION_DATABASE_MIN_CONNS must be between 0 and %d, got %d",
			c.Database.MaxConns, c.Database.MinConns)
	}

	if c.Services.EventServiceURL == "" {
		return errors.New("SERVICES_EVENT_SERVICE_URL is required")
	}
	if c.Services.AuthServiceURL == "" {
		return errors.New("SERVICES_AUTH_SERVICE_URL is required")
	}
	if c.Services.ValidationRetries < 0 {
		return fmt.Errorf("SERVICES_VALIDATION_RETRIES must not be negative, got %d", c.Services.ValidationRetries)
	}

	return nil
}

// ValidateDatabase validates reservation database configuration
func (c *Config) ValidateDatabase() error {
	if c.Database.Host == "" {
		return errors.New("RESERVATION_DATABASE_HOST is required")
	}
	if c.Database.DBName == "" {
		return errors.New("RESERVATION_DATABASE_DBNAME is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

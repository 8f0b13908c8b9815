package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the server process
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Market       MarketConfig       `mapstructure:"market"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Notification NotificationConfig `mapstructure:"notification"`
	Email        EmailConfig        `mapstructure:"email"`
	Engine       EngineConfig       `mapstructure:"engine"`
}

type AppConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type MarketConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Symbols []string      `mapstructure:"symbols"`
}

type SchedulerConfig struct {
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	CleanupHour       int           `mapstructure:"cleanup_hour"`
	RetentionDays     int           `mapstructure:"retention_days"`
}

type NotificationConfig struct {
	CleanupDays         int     `mapstructure:"cleanup_days"`
	LowBalanceThreshold float64 `mapstructure:"low_balance_threshold"`
}

type EmailConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

// EngineConfig points at the matching/margin engine service.
type EngineConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the system environment first so variables like APP_PORT
	// are visible as real env vars
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.port", ":8080")
	v.SetDefault("app.env", "local")
	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "trading")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_ticks")

	v.SetDefault("market.base_url", "https://api.twelvedata.com")
	v.SetDefault("market.api_key", "")
	v.SetDefault("market.timeout", 10*time.Second)
	v.SetDefault("market.symbols", []string{"BTC", "ETH", "SOL"})

	v.SetDefault("scheduler.refresh_interval", 30*time.Second)
	v.SetDefault("scheduler.heartbeat_interval", 5*time.Second)
	v.SetDefault("scheduler.cache_ttl", 15*time.Minute)
	v.SetDefault("scheduler.cleanup_hour", 2)
	v.SetDefault("scheduler.retention_days", 365)

	v.SetDefault("notification.cleanup_days", 30)
	v.SetDefault("notification.low_balance_threshold", 1000.0)

	v.SetDefault("email.api_url", "https://api.resend.com/emails")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "noreply@example.com")

	v.SetDefault("engine.base_url", "http://localhost:8000")
	v.SetDefault("engine.timeout", 10*time.Second)

	// Map dot-notation keys to underscore env vars (e.g. "app.port" -> "APP_PORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit binds so flat env vars map into the nested structs
	bindEnv(v, "app.port", "app.env", "logger.level")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "postgres.host", "postgres.port", "postgres.user", "postgres.password", "postgres.database", "postgres.sslmode")
	bindEnv(v, "kafka.enabled", "kafka.brokers", "kafka.topic")
	bindEnv(v, "market.base_url", "market.api_key", "market.timeout", "market.symbols")
	bindEnv(v, "scheduler.refresh_interval", "scheduler.heartbeat_interval", "scheduler.cache_ttl", "scheduler.cleanup_hour", "scheduler.retention_days")
	bindEnv(v, "notification.cleanup_days", "notification.low_balance_threshold")
	bindEnv(v, "email.api_url", "email.api_key", "email.from")
	bindEnv(v, "engine.base_url", "engine.timeout")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if len(cfg.Market.Symbols) == 0 {
		return nil, fmt.Errorf("market symbols cannot be empty")
	}
	if cfg.Scheduler.RefreshInterval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive")
	}
	if cfg.Scheduler.CleanupHour < 0 || cfg.Scheduler.CleanupHour > 23 {
		return nil, fmt.Errorf("cleanup hour must be within 0-23")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty when export is enabled")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}

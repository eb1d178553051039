package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Tariff   TariffConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Audit    AuditConfig
	Events   EventsConfig
	CORS     CORSConfig
	Log      LogConfig
}

// UpstreamConfig points the console at the platform REST backend.
type UpstreamConfig struct {
	BaseURL     string
	Timeout     time.Duration
	DefaultRole string
}

// TariffConfig tunes fare ceilings and the current-rate cache.
type TariffConfig struct {
	CacheEnabled        bool
	CacheTTL            time.Duration
	DefaultMinimumFare  float64
	DiscountReasonAbove float64
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuditConfig toggles the operator audit trail stored in Postgres.
type AuditConfig struct {
	Enabled bool
}

// EventsConfig configures schedule lifecycle events published to Kafka.
type EventsConfig struct {
	Enabled       bool
	Brokers       []string
	ScheduleTopic string
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:     strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:     parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 10*time.Second),
		DefaultRole: strings.ToLower(v.GetString("UPSTREAM_DEFAULT_ROLE")),
	}

	minimumFare := v.GetFloat64("DEFAULT_MINIMUM_FARE")
	if minimumFare < 0 {
		minimumFare = 50
	}
	threshold := v.GetFloat64("DISCOUNT_REASON_THRESHOLD")
	if threshold <= 0 || threshold > 100 {
		threshold = 20
	}
	cfg.Tariff = TariffConfig{
		CacheEnabled:        v.GetBool("ENABLE_TARIFF_CACHE"),
		CacheTTL:            parseDuration(v.GetString("TARIFF_CACHE_TTL"), 5*time.Minute),
		DefaultMinimumFare:  minimumFare,
		DiscountReasonAbove: threshold,
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Audit = AuditConfig{Enabled: v.GetBool("ENABLE_AUDIT")}

	cfg.Events = EventsConfig{
		Enabled:       v.GetBool("ENABLE_EVENTS"),
		Brokers:       splitAndTrim(v.GetString("KAFKA_BROKERS")),
		ScheduleTopic: v.GetString("KAFKA_SCHEDULE_TOPIC"),
		Workers:       v.GetInt("EVENTS_WORKERS"),
		MaxRetries:    v.GetInt("EVENTS_MAX_RETRIES"),
		RetryDelay:    parseDuration(v.GetString("EVENTS_RETRY_DELAY"), time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("UPSTREAM_DEFAULT_ROLE", "operator")

	v.SetDefault("ENABLE_TARIFF_CACHE", true)
	v.SetDefault("TARIFF_CACHE_TTL", "5m")
	v.SetDefault("DEFAULT_MINIMUM_FARE", 50)
	v.SetDefault("DISCOUNT_REASON_THRESHOLD", 20)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bus_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_AUDIT", false)

	v.SetDefault("ENABLE_EVENTS", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_SCHEDULE_TOPIC", "schedule-events")
	v.SetDefault("EVENTS_WORKERS", 1)
	v.SetDefault("EVENTS_MAX_RETRIES", 3)
	v.SetDefault("EVENTS_RETRY_DELAY", "1s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// viper reports a missing explicit config file as a plain fs error rather than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

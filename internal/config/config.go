package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	SMTP         SMTPConfig         `mapstructure:"smtp"`
	Notification NotificationConfig `mapstructure:"notification"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Scheduling   SchedulingConfig   `mapstructure:"scheduling"`
	Access       AccessConfig       `mapstructure:"access"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// AllowedOrigins lists CORS origins. Empty disables CORS headers.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	PoolSize int           `mapstructure:"pool_size"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type NotificationConfig struct {
	Async           bool          `mapstructure:"async"`
	ChannelTimeout  time.Duration `mapstructure:"channel_timeout"`
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type SchedulingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type AccessConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// LogCapacity bounds the in-memory access log; 0 keeps everything.
	LogCapacity int `mapstructure:"log_capacity"`
}

// secrets are only ever read from the environment, prefixed CLINIC_.
type secrets struct {
	Environment      string `envconfig:"ENVIRONMENT"`
	ServerPort       int    `envconfig:"SERVER_PORT"`
	DatabaseHost     string `envconfig:"DB_HOST"`
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	RedisURL         string `envconfig:"REDIS_URL"`
	JWTSecret        string `envconfig:"JWT_SECRET"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "clinic")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.lock_ttl", "10s")
	v.SetDefault("jwt.issuer", "clinic-api")
	v.SetDefault("jwt.expiry_hours", 24)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("notification.async", false)
	v.SetDefault("notification.channel_timeout", "10s")
	v.SetDefault("notification.retention_days", 90)
	v.SetDefault("notification.cleanup_interval", "24h")
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("logging.level", "info")
	v.SetDefault("scheduling.timezone", "UTC")
	v.SetDefault("access.cache_ttl", "30s")
	v.SetDefault("access.log_capacity", 100000)
}

// LoadConfig reads .env, then the yaml file at path (or ./config.yaml, ./config/config.yaml
// when path is empty), then applies CLINIC_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	s := secrets{
		Environment:      cfg.Environment,
		ServerPort:       cfg.Server.Port,
		DatabaseHost:     cfg.Database.Host,
		DatabasePassword: cfg.Database.Password,
		RedisURL:         cfg.Redis.URL,
		JWTSecret:        cfg.JWT.Secret,
		SMTPPassword:     cfg.SMTP.Password,
	}
	if err := envconfig.Process("CLINIC", &s); err != nil {
		return fmt.Errorf("failed to process environment: %w", err)
	}

	cfg.Environment = s.Environment
	cfg.Server.Port = s.ServerPort
	cfg.Database.Host = s.DatabaseHost
	cfg.Database.Password = s.DatabasePassword
	cfg.Redis.URL = s.RedisURL
	cfg.JWT.Secret = s.JWTSecret
	cfg.SMTP.Password = s.SMTPPassword
	return nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Notification.RetentionDays < 1 {
		return fmt.Errorf("notification retention must be at least one day")
	}
	for name, d := range map[string]time.Duration{
		"redis.lock_ttl":                c.Redis.LockTTL,
		"notification.channel_timeout":  c.Notification.ChannelTimeout,
		"notification.cleanup_interval": c.Notification.CleanupInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("invalid scheduling timezone: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Location returns the timezone used to decide what "today" is for bookings.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduling.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config agrupa toda la configuración del servicio
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Network    NetworkConfig
	Dispatcher DispatcherConfig
	Webhook    WebhookConfig
}

type ServerConfig struct {
	Port         string        `validate:"required,numeric"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
	IdleTimeout  time.Duration `validate:"gt=0"`
}

type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

type DatabaseConfig struct {
	Driver       string `validate:"oneof=sqlite postgres"`
	DSN          string `validate:"required"`
	MaxOpenConns int    `validate:"gte=1"`
	MaxIdleConns int    `validate:"gte=0"`
}

type CacheConfig struct {
	Driver        string        `validate:"oneof=memory redis"`
	TTL           time.Duration `validate:"gt=0"`
	RedisAddr     string        `validate:"required_if=Driver redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`
}

// NetworkConfig controla el request builder compartido hacia WooCommerce / WordPress.com
type NetworkConfig struct {
	Timeout            time.Duration `validate:"gt=0"`
	UserAgent          string        `validate:"required"`
	WPComBaseURL       string        `validate:"required,url"`
	RateLimitPerSecond float64       `validate:"gt=0"`
	Burst              int           `validate:"gte=1"`
	BreakerMaxFailures uint32        `validate:"gte=1"`
	BreakerOpenTimeout time.Duration `validate:"gt=0"`
}

type DispatcherConfig struct {
	Workers   int `validate:"gte=1"`
	QueueSize int `validate:"gte=1"`
}

// WebhookConfig: si URL está vacía no se envían eventos
type WebhookConfig struct {
	URL       string `validate:"omitempty,url"`
	Attempts  int    `validate:"gte=1"`
	BaseDelay time.Duration
	Timeout   time.Duration `validate:"gt=0"`
}

// Load carga la configuración desde config.yaml (opcional) y variables de entorno.
// Prioridad: FLUXC_* (o PORT / WEBHOOK_URL) > config.yaml > defaults.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom permite inyectar una instancia de viper (tests).
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("FLUXC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Compatibilidad con Cloud Run
	_ = v.BindEnv("server.port", "PORT", "FLUXC_SERVER_PORT")
	_ = v.BindEnv("webhook.url", "WEBHOOK_URL", "FLUXC_WEBHOOK_URL")

	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			IdleTimeout:  v.GetDuration("server.idle_timeout"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("database.driver")),
			DSN:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
			MaxIdleConns: v.GetInt("database.max_idle_conns"),
		},
		Cache: CacheConfig{
			Driver:        strings.ToLower(v.GetString("cache.driver")),
			TTL:           v.GetDuration("cache.ttl"),
			RedisAddr:     v.GetString("cache.redis_addr"),
			RedisPassword: v.GetString("cache.redis_password"),
			RedisDB:       v.GetInt("cache.redis_db"),
		},
		Network: NetworkConfig{
			Timeout:            v.GetDuration("network.timeout"),
			UserAgent:          v.GetString("network.user_agent"),
			WPComBaseURL:       strings.TrimRight(v.GetString("network.wpcom_base_url"), "/"),
			RateLimitPerSecond: v.GetFloat64("network.rate_limit_per_second"),
			Burst:              v.GetInt("network.burst"),
			BreakerMaxFailures: v.GetUint32("network.breaker_max_failures"),
			BreakerOpenTimeout: v.GetDuration("network.breaker_open_timeout"),
		},
		Dispatcher: DispatcherConfig{
			Workers:   v.GetInt("dispatcher.workers"),
			QueueSize: v.GetInt("dispatcher.queue_size"),
		},
		Webhook: WebhookConfig{
			URL:       v.GetString("webhook.url"),
			Attempts:  v.GetInt("webhook.attempts"),
			BaseDelay: v.GetDuration("webhook.base_delay"),
			Timeout:   v.GetDuration("webhook.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "fluxc.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("network.timeout", 30*time.Second)
	v.SetDefault("network.user_agent", "woo-fluxc-service/1.0")
	v.SetDefault("network.wpcom_base_url", "https://public-api.wordpress.com")
	// 5 req/s por sitio para evitar rate limiting (429)
	v.SetDefault("network.rate_limit_per_second", 5.0)
	v.SetDefault("network.burst", 5)
	v.SetDefault("network.breaker_max_failures", 5)
	v.SetDefault("network.breaker_open_timeout", 30*time.Second)

	v.SetDefault("dispatcher.workers", 5)
	v.SetDefault("dispatcher.queue_size", 1000)

	v.SetDefault("webhook.attempts", 3)
	v.SetDefault("webhook.base_delay", time.Second)
	v.SetDefault("webhook.timeout", 10*time.Second)
}

var validate = validator.New()

// Validate revisa la configuración con los tags `validate`.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

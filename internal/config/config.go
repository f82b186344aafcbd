// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"telegram-subscription-shop/internal/domain"
)

type RuntimeConfig struct {
	Dev bool
	// Warnings collected while loading; logged by main once the logger exists.
	Warnings []string
}

type BotConfig struct {
	Token        string `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	Mode         string `yaml:"mode" env:"TELEGRAM_BOT_MODE"` // polling
	Username     string `yaml:"username" env:"TELEGRAM_BOT_USERNAME"`
	Workers      int    `yaml:"workers" env:"TELEGRAM_BOT_WORKERS"` // polling workers
	SupportURL   string `yaml:"support_url" env:"SUPPORT_URL"`
	WelcomePhoto string `yaml:"welcome_photo" env:"WELCOME_PHOTO_URL"`
	RateLimit    int    `yaml:"rate_limit" env:"TELEGRAM_RATE_LIMIT"` // per user per minute
}

type ManagerConfig struct {
	ChatID int64 `yaml:"chat_id" env:"MANAGER_CHAT_ID"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"`
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"PORT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"ADMIN_TOKEN_TTL"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS"`
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"REDIS_URL"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type RobokassaConfig struct {
	MerchantLogin string `yaml:"merchant_login" env:"ROBOKASSA_MERCHANT_LOGIN"`
	Password1     string `yaml:"password1" env:"ROBOKASSA_PASSWORD1"`
	Password2     string `yaml:"password2" env:"ROBOKASSA_PASSWORD2"`
	TestMode      bool   `yaml:"test_mode" env:"ROBOKASSA_TEST_MODE"`
	BaseURL       string `yaml:"base_url" env:"ROBOKASSA_BASE_URL"`
	Culture       string `yaml:"culture" env:"ROBOKASSA_CULTURE"`
}

type PaymentConfig struct {
	Robokassa RobokassaConfig `yaml:"robokassa"`
}

type CatalogConfig struct {
	Path string `yaml:"path" env:"CATALOG_PATH"`
}

type WorkerConfig struct {
	Notifiers int `yaml:"notifiers" env:"NOTIFY_WORKERS"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Manager  ManagerConfig  `yaml:"manager"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, loads .env (if any),
// overlays environment variables, applies defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			cfg.Runtime.Warnings = append(cfg.Runtime.Warnings, fmt.Sprintf("config file %s not found; using environment only", path))
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = 30
	}
	if cfg.Bot.SupportURL == "" {
		cfg.Bot.SupportURL = "https://t.me/wpnetwork_sup"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 5000
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Worker.Notifiers <= 0 {
		cfg.Worker.Notifiers = 4
	}
	if cfg.Payment.Robokassa.Password2 == "" && cfg.Payment.Robokassa.Password1 != "" {
		cfg.Payment.Robokassa.Password2 = cfg.Payment.Robokassa.Password1
		cfg.Runtime.Warnings = append(cfg.Runtime.Warnings,
			"ROBOKASSA_PASSWORD2 not set; result callbacks are verified with password1")
	}
}

// Validate fails fast on missing credentials. Dev mode relaxes infrastructure
// (bot token, database, redis) but never the payment secrets.
func (c *Config) Validate() error {
	rk := c.Payment.Robokassa
	if strings.TrimSpace(rk.MerchantLogin) == "" {
		return fmt.Errorf("payment.robokassa.merchant_login is required: %w", domain.ErrMissingCredentials)
	}
	if rk.Password1 == "" {
		return fmt.Errorf("payment.robokassa.password1 is required: %w", domain.ErrMissingCredentials)
	}
	if c.Runtime.Dev {
		return nil
	}
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Bot.Username == "" {
		return errors.New("bot.username is required")
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	return nil
}

// DistinctSecrets reports whether result callbacks use their own password.
func (c *Config) DistinctSecrets() bool {
	return c.Payment.Robokassa.Password2 != c.Payment.Robokassa.Password1
}

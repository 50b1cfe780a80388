// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token   string `yaml:"token"`
	Workers int    `yaml:"workers"` // update workers
	// Per-user event budget per minute; 0 disables rate limiting.
	RateLimit int `yaml:"rate_limit"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
	File     string `yaml:"file"`     // optional rotated log file
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // host:port
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StateConfig struct {
	Backend   string        `yaml:"backend"` // redis | postgres
	Lock      string        `yaml:"lock"`    // memory | redis
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"` // 0 keeps state forever
	LockTTL   time.Duration `yaml:"lock_ttl"`
}

type CommerceConfig struct {
	BaseURL      string        `yaml:"base_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
	TokenLeeway  time.Duration `yaml:"token_leeway"`
}

type CacheConfig struct {
	CatalogTTL   time.Duration `yaml:"catalog_ttl"`
	ImageTTL     time.Duration `yaml:"image_ttl"`
	// WarmInterval is how often the product list is refetched in the
	// background. Negative disables warming.
	WarmInterval time.Duration `yaml:"warm_interval"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	State    StateConfig    `yaml:"state"`
	Commerce CommerceConfig `yaml:"commerce"`
	Cache    CacheConfig    `yaml:"cache"`
	Language string         `yaml:"language"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file (optional when every value comes from the
// environment), loads .env if present and applies environment overrides.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is a convenience for local runs; its absence is fine.
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only configuration
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Bot.Token, "TELEGRAM_TOKEN")
	setStr(&cfg.Commerce.ClientID, "CLIENT_ID")
	setStr(&cfg.Commerce.ClientSecret, "CLIENT_SECRET")
	setStr(&cfg.Commerce.BaseURL, "COMMERCE_BASE_URL")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.Database.URL, "DATABASE_URL")

	host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
	if host != "" {
		if port == "" {
			port = "6379"
		}
		cfg.Redis.URL = host + ":" + port
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if cfg.State.Backend == "" {
		cfg.State.Backend = "redis"
	}
	cfg.State.Lock = strings.ToLower(strings.TrimSpace(cfg.State.Lock))
	if cfg.State.Lock == "" {
		cfg.State.Lock = "memory"
	}
	if cfg.State.KeyPrefix == "" {
		cfg.State.KeyPrefix = "conv_state:"
	}
	if cfg.State.LockTTL <= 0 {
		cfg.State.LockTTL = 30 * time.Second
	}
	if cfg.Commerce.BaseURL == "" {
		cfg.Commerce.BaseURL = "https://api.moltin.com"
	}
	cfg.Commerce.BaseURL = strings.TrimRight(cfg.Commerce.BaseURL, "/")
	if cfg.Commerce.Timeout <= 0 {
		cfg.Commerce.Timeout = 15 * time.Second
	}
	if cfg.Commerce.TokenLeeway <= 0 {
		cfg.Commerce.TokenLeeway = 30 * time.Second
	}
	if cfg.Cache.CatalogTTL <= 0 {
		cfg.Cache.CatalogTTL = 5 * time.Minute
	}
	if cfg.Cache.ImageTTL <= 0 {
		cfg.Cache.ImageTTL = time.Hour
	}
	if cfg.Cache.WarmInterval == 0 {
		cfg.Cache.WarmInterval = cfg.Cache.CatalogTTL / 2
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
}

// Validate performs minimal validation.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required (or TELEGRAM_TOKEN)")
	}
	if c.Commerce.ClientID == "" || c.Commerce.ClientSecret == "" {
		return errors.New("commerce.client_id and commerce.client_secret are required (or CLIENT_ID/CLIENT_SECRET)")
	}
	switch c.State.Backend {
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for state.backend=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for state.backend=postgres")
		}
	default:
		return fmt.Errorf("state.backend %q is not supported", c.State.Backend)
	}
	switch c.State.Lock {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for state.lock=redis")
		}
	default:
		return fmt.Errorf("state.lock %q is not supported", c.State.Lock)
	}
	return nil
}

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

	"channel-relay-bot/internal/domain"
)

// TargetChannel is the channel users must join before the bot serves them.
const TargetChannel = "morsh_bots"

// CheckSubscriptionPayload is the callback payload of the "check subscription" button.
const CheckSubscriptionPayload = "check_sub"

const (
	DriverMTProto = "mtproto"
	DriverBotAPI  = "botapi"

	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Driver         string        `yaml:"driver"` // mtproto | botapi
	Token          string        `yaml:"token"`
	APIID          int           `yaml:"api_id"`
	APIHash        string        `yaml:"api_hash"`
	StagingChatID  int64         `yaml:"staging_chat_id"` // botapi only
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
	DryRun         bool          `yaml:"dry_run"`
	SendRate       float64       `yaml:"send_rate"` // outbound messages per second
	SendBurst      int           `yaml:"send_burst"`
	Language       string        `yaml:"language"`
}

type RateLimitConfig struct {
	Backend            string        `yaml:"backend"` // memory | redis
	Cooldown           time.Duration `yaml:"cooldown"`
	MaxPerWindow       int           `yaml:"max_per_window"`
	Window             time.Duration `yaml:"window"`
	MaxConcurrentUsers int           `yaml:"max_concurrent_users"`
	InactiveAfter      time.Duration `yaml:"inactive_after"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	DedupeTTL          time.Duration `yaml:"dedupe_ttl"`
}

type SessionConfig struct {
	Dir              string        `yaml:"dir"`
	StartupAttempts  int           `yaml:"startup_attempts"`
	StartupBackoff   time.Duration `yaml:"startup_backoff"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
}

type LogConfig struct {
	Level        string `yaml:"level"`         // trace|debug|info|warn|error
	Format       string `yaml:"format"`        // json|console
	Sampling     bool   `yaml:"sampling"`      // enable sampling in prod
	MTProtoDebug bool   `yaml:"mtproto_debug"` // protocol-level logs from the mtproto client
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Redis     RedisConfig     `yaml:"redis"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, overlays environment
// variables (a .env file in the working directory is loaded first), applies
// defaults and validates the result. A missing file is not an error; missing
// credentials are.
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
			// env-only deployment
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := env("API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: API_ID must be an integer", domain.ErrInvalidConfig)
		}
		cfg.Bot.APIID = id
	}
	if v := env("API_HASH"); v != "" {
		cfg.Bot.APIHash = v
	}
	if v := env("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := env("BOT_DRIVER"); v != "" {
		cfg.Bot.Driver = v
	}
	if v := env("BOT_STAGING_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: BOT_STAGING_CHAT_ID must be an integer", domain.ErrInvalidConfig)
		}
		cfg.Bot.StagingChatID = id
	}
	if v := env("SESSION_DIR"); v != "" {
		cfg.Session.Dir = v
	}
	if v := env("RATE_LIMIT_BACKEND"); v != "" {
		cfg.RateLimit.Backend = v
	}
	if v := env("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := env("ADMIN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: ADMIN_PORT must be an integer", domain.ErrInvalidConfig)
		}
		cfg.Admin.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Bot.Driver = strings.ToLower(strings.TrimSpace(cfg.Bot.Driver))
	if cfg.Bot.Driver == "" {
		cfg.Bot.Driver = DriverMTProto
	}
	if cfg.Bot.HandlerTimeout <= 0 {
		cfg.Bot.HandlerTimeout = time.Minute
	}
	if cfg.Bot.SendRate <= 0 {
		cfg.Bot.SendRate = 25
	}
	if cfg.Bot.SendBurst <= 0 {
		cfg.Bot.SendBurst = 5
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}

	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = BackendMemory
	}
	if cfg.RateLimit.Cooldown <= 0 {
		cfg.RateLimit.Cooldown = 5 * time.Second
	}
	if cfg.RateLimit.MaxPerWindow <= 0 {
		cfg.RateLimit.MaxPerWindow = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.RateLimit.MaxConcurrentUsers <= 0 {
		cfg.RateLimit.MaxConcurrentUsers = 1000
	}
	if cfg.RateLimit.InactiveAfter <= 0 {
		cfg.RateLimit.InactiveAfter = 5 * time.Minute
	}
	if cfg.RateLimit.SweepInterval <= 0 {
		cfg.RateLimit.SweepInterval = time.Minute
	}
	if cfg.RateLimit.DedupeTTL <= 0 {
		cfg.RateLimit.DedupeTTL = 24 * time.Hour
	}

	if cfg.Session.Dir == "" {
		cfg.Session.Dir = "."
	}
	if cfg.Session.StartupAttempts <= 0 {
		cfg.Session.StartupAttempts = 3
	}
	if cfg.Session.StartupBackoff <= 0 {
		cfg.Session.StartupBackoff = 5 * time.Second
	}
	if cfg.Session.ReconnectBackoff <= 0 {
		cfg.Session.ReconnectBackoff = 30 * time.Second
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
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bot.Token) == "" {
		return fmt.Errorf("%w: BOT_TOKEN is required", domain.ErrInvalidConfig)
	}
	switch c.Bot.Driver {
	case DriverMTProto:
		if c.Bot.APIID == 0 {
			return fmt.Errorf("%w: API_ID is required", domain.ErrInvalidConfig)
		}
		if strings.TrimSpace(c.Bot.APIHash) == "" {
			return fmt.Errorf("%w: API_HASH is required", domain.ErrInvalidConfig)
		}
	case DriverBotAPI:
		if c.Bot.StagingChatID == 0 {
			return fmt.Errorf("%w: BOT_STAGING_CHAT_ID is required for the botapi driver", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown bot driver %q", domain.ErrInvalidConfig, c.Bot.Driver)
	}
	switch c.RateLimit.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("%w: redis.url is required for the redis backend", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown rate limit backend %q", domain.ErrInvalidConfig, c.RateLimit.Backend)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

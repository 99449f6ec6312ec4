package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"channel-relay-bot/internal/domain"
)

var envKeys = []string{
	"API_ID", "API_HASH", "BOT_TOKEN", "BOT_DRIVER", "BOT_STAGING_CHAT_ID",
	"SESSION_DIR", "RATE_LIMIT_BACKEND", "REDIS_URL", "REDIS_PASSWORD",
	"LOG_LEVEL", "LOG_FORMAT", "ADMIN_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("API_ID", "12345")
	t.Setenv("API_HASH", "0123456789abcdef")
	t.Setenv("BOT_TOKEN", "1:token")
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	setCredentials(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Driver != DriverMTProto || cfg.Bot.APIID != 12345 {
		t.Fatalf("bot config = %+v", cfg.Bot)
	}
	rl := cfg.RateLimit
	if rl.Cooldown != 5*time.Second || rl.MaxPerWindow != 10 || rl.Window != time.Minute || rl.MaxConcurrentUsers != 1000 {
		t.Fatalf("rate limit defaults = %+v", rl)
	}
	if rl.Backend != BackendMemory {
		t.Fatalf("backend = %q", rl.Backend)
	}
	if cfg.Session.StartupAttempts != 3 || cfg.Session.StartupBackoff != 5*time.Second || cfg.Session.ReconnectBackoff != 30*time.Second {
		t.Fatalf("session defaults = %+v", cfg.Session)
	}
	if cfg.Bot.HandlerTimeout != time.Minute || cfg.Bot.SendRate != 25 || cfg.Bot.SendBurst != 5 {
		t.Fatalf("bot defaults = %+v", cfg.Bot)
	}
}

func TestLoadConfig_MissingCredentials(t *testing.T) {
	cases := map[string]string{
		"API_ID":    "",
		"API_HASH":  "",
		"BOT_TOKEN": "",
	}
	for key := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			setCredentials(t)
			t.Setenv(key, "")

			_, err := LoadConfig("", false)
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig_NonNumericAPIID(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("API_ID", "abc")

	if _, err := LoadConfig("", false); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadConfig_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte(`
bot:
  handler_timeout: 20s
rate_limit:
  cooldown: 2s
log:
  level: warn
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.HandlerTimeout != 20*time.Second {
		t.Fatalf("handler timeout = %s", cfg.Bot.HandlerTimeout)
	}
	if cfg.RateLimit.Cooldown != 2*time.Second {
		t.Fatalf("cooldown = %s", cfg.RateLimit.Cooldown)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env must win over file, level = %q", cfg.Log.Level)
	}
	if !cfg.Runtime.Dev {
		t.Fatal("dev flag not propagated")
	}
}

func TestValidate_DriverRules(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "1:token")
	t.Setenv("BOT_DRIVER", "botapi")

	if _, err := LoadConfig("", false); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("botapi without staging chat: err = %v", err)
	}

	t.Setenv("BOT_STAGING_CHAT_ID", "-1001234")
	cfg, err := LoadConfig("", false)
	if err != nil {
		t.Fatalf("botapi with staging chat: %v", err)
	}
	if cfg.Bot.StagingChatID != -1001234 {
		t.Fatalf("staging chat = %d", cfg.Bot.StagingChatID)
	}

	t.Setenv("BOT_DRIVER", "carrier-pigeon")
	if _, err := LoadConfig("", false); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("unknown driver: err = %v", err)
	}
}

func TestValidate_RedisBackendNeedsURL(t *testing.T) {
	clearEnv(t)
	setCredentials(t)
	t.Setenv("RATE_LIMIT_BACKEND", "redis")

	if _, err := LoadConfig("", false); !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	if _, err := LoadConfig("", false); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}

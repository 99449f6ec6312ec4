package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"channel-relay-bot/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		sessionDir = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123")
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "1.2.3") || !strings.Contains(out, "abc123") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSessionsPurge(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"relay_01.session", "relay_01.session-journal", "keep.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	out, err := execute(t, "sessions", "purge", "--dir", dir)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if !strings.Contains(out, "removed 2 file(s)") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.txt")); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestLogStartupRedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	cfg := &config.Config{Bot: config.BotConfig{
		Driver:  config.DriverMTProto,
		Token:   "123456:SECRETSECRETSECRET",
		APIID:   42,
		APIHash: "0123456789abcdef0123456789abcdef",
	}}

	logStartup(&logger, cfg)

	out := buf.String()
	if strings.Contains(out, cfg.Bot.Token) || strings.Contains(out, cfg.Bot.APIHash) {
		t.Fatalf("credentials leaked: %s", out)
	}
	if !strings.Contains(out, `"bot_token":"1234...ET"`) {
		t.Fatalf("redacted token missing: %s", out)
	}
}

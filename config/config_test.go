package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv blanks every override so tests see only what they set themselves.
// Load treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "STORAGE_BUCKET", "LOCAL_STORAGE", "LOE_NOTIFIER_CONFIG"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token-from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CheckInterval() != 300*time.Second {
		t.Errorf("CheckInterval() = %v, want 5m", cfg.CheckInterval())
	}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("FetchTimeout() = %v, want 15s", cfg.FetchTimeout())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.StrictGroupMatch {
		t.Error("StrictGroupMatch = true, want false by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram_token: file-token
api_url: https://example.test/api/menus
check_interval_secs: 60
fetch_timeout_secs: 5
strict_group_match: true
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramToken != "file-token" {
		t.Errorf("TelegramToken = %q, want %q", cfg.TelegramToken, "file-token")
	}
	if cfg.APIURL != "https://example.test/api/menus" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.CheckIntervalSec != 60 {
		t.Errorf("CheckIntervalSec = %d, want 60", cfg.CheckIntervalSec)
	}
	if !cfg.StrictGroupMatch {
		t.Error("StrictGroupMatch = false, want true from file")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram_token: file-token
storage_bucket: file-bucket
`)

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("STORAGE_BUCKET", "env-bucket")
	t.Setenv("LOCAL_STORAGE", "/var/lib/notifier")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TelegramToken != "env-token" {
		t.Errorf("TelegramToken = %q, want env override", cfg.TelegramToken)
	}
	if cfg.StorageBucket != "env-bucket" {
		t.Errorf("StorageBucket = %q, want env override", cfg.StorageBucket)
	}
	if cfg.LocalStorage != "/var/lib/notifier" {
		t.Errorf("LocalStorage = %q, want env override", cfg.LocalStorage)
	}
}

func TestLoadAlternateConfigPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram_token: alternate-token\n")
	t.Setenv("LOE_NOTIFIER_CONFIG", path)

	cfg, err := Load("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TelegramToken != "alternate-token" {
		t.Errorf("TelegramToken = %q, want the alternate file's token", cfg.TelegramToken)
	}
}

func TestLoadRejectsMissingToken(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() = nil error, want missing token rejected")
	}
	if !strings.Contains(err.Error(), "telegram_token") {
		t.Errorf("Load() error = %v, want it to name telegram_token", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram_token: [unclosed\n")

	if _, err := Load(path); err == nil {
		t.Error("Load() = nil error, want parse failure")
	}
}

func TestValidateRejectsNonPositiveDurations(t *testing.T) {
	cfg := Defaults()
	cfg.TelegramToken = "t"

	cfg.CheckIntervalSec = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with zero interval = nil error")
	}

	cfg = Defaults()
	cfg.TelegramToken = "t"
	cfg.FetchTimeoutSec = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with negative timeout = nil error")
	}
}

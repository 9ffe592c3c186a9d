package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Client.Product != "plextool" {
			t.Errorf("expected product plextool, got %s", config.Client.Product)
		}

		if config.Client.TimeoutSeconds != 30 {
			t.Errorf("expected timeout 30, got %d", config.Client.TimeoutSeconds)
		}

		if config.Updater.Container != "plex" {
			t.Errorf("expected container plex, got %s", config.Updater.Container)
		}

		if config.Downloads.Directory != "" {
			t.Errorf("expected empty default download directory, got %s", config.Downloads.Directory)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Client.Product != DefaultConfig().Client.Product {
			t.Errorf("created config product doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[client]
product = "plextool-dev"
timeout_seconds = 5
rate_limit = 2.5
rate_burst = 1

[downloads]
directory = "/mnt/usb"
ledger_path = "/tmp/ledger.db"

[updater]
container = "pms"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0o644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Client.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %v", config.Client.RateLimit)
		}

		if config.Downloads.Directory != "/mnt/usb" {
			t.Errorf("expected download directory /mnt/usb, got %s", config.Downloads.Directory)
		}

		if config.Updater.Container != "pms" {
			t.Errorf("expected container pms, got %s", config.Updater.Container)
		}

		ledger, err := config.LedgerPath()
		if err != nil {
			t.Fatalf("failed to resolve ledger path: %v", err)
		}
		if ledger != "/tmp/ledger.db" {
			t.Errorf("expected configured ledger path, got %s", ledger)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if err == nil {
			t.Fatal("expected error for missing config")
		}
	})
}

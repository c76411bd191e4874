package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFile_MissingFile(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvExtensionToken, "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nonexistent.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFile_PartialFile(t *testing.T) {
	t.Setenv(EnvAddr, "")
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[server]\naddr = \"0.0.0.0:9000\"\n\n[extension]\nretry_attempts = 5\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Extension.RetryAttempts != 5 {
		t.Errorf("RetryAttempts = %d", cfg.Extension.RetryAttempts)
	}
	if cfg.Server.OwnerID != "dev-user" || cfg.Extension.TimeoutSec != 30 {
		t.Errorf("defaults lost for absent keys: %+v", cfg)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\naddr = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/override.db")
	t.Setenv(EnvAddr, "127.0.0.1:9999")
	t.Setenv(EnvExtensionToken, "secret")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath() != "/tmp/override.db" || cfg.Server.Addr != "127.0.0.1:9999" || cfg.Extension.Token != "secret" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	t.Setenv(EnvExtensionToken, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := DefaultConfig()
	cfg.Extension.SyncIntervalSec = 60
	cfg.Log.Verbosity = 2
	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SyncInterval() != time.Minute || got.Log.Verbosity != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Addr = "no-port"
	cfg.Server.OwnerID = ""
	cfg.Extension.RetryAttempts = 0
	cfg.Extension.ExportLimit = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.addr", "server.owner_id", "extension.retry_attempts", "extension.export_limit"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DBTimeout() != 5*time.Second {
		t.Errorf("DBTimeout = %v", cfg.DBTimeout())
	}
	if cfg.ExtensionTimeout() != 30*time.Second || cfg.Backoff() != time.Second {
		t.Errorf("extension durations = %v / %v", cfg.ExtensionTimeout(), cfg.Backoff())
	}
	if cfg.RegistryTTL() != 10*time.Minute || cfg.SyncInterval() != 0 {
		t.Errorf("registry/sync = %v / %v", cfg.RegistryTTL(), cfg.SyncInterval())
	}
}

func TestDirsHonourXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	t.Setenv(EnvDBPath, "")

	if Path() != "/xdg/config/afkmon/config.toml" {
		t.Errorf("Path = %q", Path())
	}
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DBPath() != "/xdg/cache/afkmon/sessions.db" {
		t.Errorf("DBPath = %q", cfg.DBPath())
	}
}

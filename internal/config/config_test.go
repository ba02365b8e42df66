package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.DataDir != "./data" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Ai.Backend != "ollama" {
		t.Errorf("Ai.Backend = %q", cfg.Ai.Backend)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
}

func TestFromFileAppliesOverridesAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
data_dir = "/tmp/tourney"
log_level = "debug"

[ai]
backend = "anthropic"
model = "claude"

[server]
port = 9090

[storage]
redis_addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if cfg.DataDir != "/tmp/tourney" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Ai.Backend != "anthropic" {
		t.Errorf("Ai.Backend = %q", cfg.Ai.Backend)
	}
	if cfg.Ai.TimeoutSeconds != 120 {
		t.Errorf("Ai.TimeoutSeconds should keep default, got %d", cfg.Ai.TimeoutSeconds)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Storage.RedisAddr != "localhost:6379" {
		t.Errorf("Storage.RedisAddr = %q", cfg.Storage.RedisAddr)
	}
}

func TestValidateRejectsZeroTimeout(t *testing.T) {
	cfg := Default()
	cfg.Ai.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidateRejectsZeroPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestFromFileMissingFile(t *testing.T) {
	if _, err := FromFile("/nonexistent/config.toml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

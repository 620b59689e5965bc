package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"paperchat/internal/modes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.API.BaseURL != "http://localhost:5000" {
		t.Errorf("expected BaseURL=http://localhost:5000, got %s", cfg.API.BaseURL)
	}
	if cfg.UI.DefaultMode != "strict" {
		t.Errorf("expected DefaultMode=strict, got %s", cfg.UI.DefaultMode)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Level=info, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://paperchat-backend:9000"
	cfg.UI.DefaultMode = "expert"
	cfg.Upload.MaxFileMB = 10

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.API.BaseURL != "http://paperchat-backend:9000" {
		t.Errorf("expected BaseURL=http://paperchat-backend:9000, got %s", loaded.API.BaseURL)
	}
	if loaded.UI.DefaultMode != "expert" {
		t.Errorf("expected DefaultMode=expert, got %s", loaded.UI.DefaultMode)
	}
	if loaded.Upload.MaxFileMB != 10 {
		t.Errorf("expected MaxFileMB=10, got %d", loaded.Upload.MaxFileMB)
	}
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load of missing file failed: %v", err)
	}
	if cfg.API.BaseURL != DefaultConfig().API.BaseURL {
		t.Errorf("missing file should yield defaults, got BaseURL=%s", cfg.API.BaseURL)
	}
}

func TestConfig_LoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [not a map"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PAPERCHAT_API_URL", "http://env-host:8080")
	t.Setenv("PAPERCHAT_MODE", "augmented")
	t.Setenv("PAPERCHAT_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.API.BaseURL != "http://env-host:8080" {
		t.Errorf("expected BaseURL=http://env-host:8080, got %s", cfg.API.BaseURL)
	}
	if cfg.UI.DefaultMode != "augmented" {
		t.Errorf("expected DefaultMode=augmented, got %s", cfg.UI.DefaultMode)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Logging.Level)
	}
}

func TestConfig_EnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://from-file:7000"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	t.Setenv("PAPERCHAT_API_URL", "http://from-env:7001")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.API.BaseURL != "http://from-env:7001" {
		t.Errorf("env should win over file, got %s", loaded.API.BaseURL)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}

	cfg.API.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty base URL")
	}

	cfg = DefaultConfig()
	cfg.API.Timeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for bad timeout")
	}

	cfg = DefaultConfig()
	cfg.UI.DefaultMode = "omniscient"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for unknown mode")
	}

	cfg = DefaultConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid log level")
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetAPITimeout() != 120*time.Second {
		t.Errorf("GetAPITimeout = %v, want 120s", cfg.GetAPITimeout())
	}
	cfg.API.Timeout = "garbage"
	if cfg.GetAPITimeout() != 120*time.Second {
		t.Error("GetAPITimeout should fall back to 120s on parse failure")
	}

	cfg = DefaultConfig()
	if cfg.GetTypewriterInterval() != 35*time.Millisecond {
		t.Errorf("GetTypewriterInterval = %v, want 35ms", cfg.GetTypewriterInterval())
	}
	cfg.UI.TypewriterIntervalMS = 0
	if cfg.GetTypewriterInterval() != 35*time.Millisecond {
		t.Error("GetTypewriterInterval should fall back on zero interval")
	}

	cfg = DefaultConfig()
	if cfg.DefaultKnowledgeMode() != modes.Strict {
		t.Errorf("DefaultKnowledgeMode = %v, want Strict", cfg.DefaultKnowledgeMode())
	}
	cfg.UI.DefaultMode = "nonsense"
	if cfg.DefaultKnowledgeMode() != modes.Default {
		t.Error("DefaultKnowledgeMode should fall back to the package default")
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Error("exists should be false for a missing config file")
	}
	if cfg.Conversion.Workers != defaultWorkers {
		t.Errorf("workers = %d, want default %d", cfg.Conversion.Workers, defaultWorkers)
	}
	if cfg.Conversion.Mode != ModeDirect {
		t.Errorf("mode = %q, want %q", cfg.Conversion.Mode, ModeDirect)
	}
	if !filepath.IsAbs(cfg.Paths.CacheDir) {
		t.Errorf("cache dir should be expanded to absolute, got %q", cfg.Paths.CacheDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[conversion]
workers = 8
task_timeout_seconds = 30
mode = "api-assisted"

[gemini]
api_key = "test-key"
max_retries = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Errorf("expected resolved=%q exists=true, got %q/%v", path, resolved, exists)
	}
	if cfg.Conversion.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Conversion.Workers)
	}
	if cfg.Conversion.TaskTimeoutSeconds != 30 {
		t.Errorf("task timeout = %d, want 30", cfg.Conversion.TaskTimeoutSeconds)
	}
	if cfg.Gemini.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Gemini.MaxRetries)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[conversion]\nmode = \"magic\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown conversion mode")
	}
}

func TestValidateForModeRequiresKey(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg.Gemini.APIKey = ""

	if err := cfg.ValidateForMode(ModeDirect); err != nil {
		t.Errorf("direct mode should not require an API key: %v", err)
	}
	err := cfg.ValidateForMode(ModeAPIAssisted)
	if err == nil {
		t.Fatal("api-assisted mode should require an API key")
	}
	if !strings.Contains(err.Error(), "gemini.api_key") {
		t.Errorf("error should mention the missing key, got %q", err)
	}

	cfg.Gemini.APIKey = "present"
	if err := cfg.ValidateForMode(ModeAPIAssisted); err != nil {
		t.Errorf("key present should pass: %v", err)
	}
}

func TestRunLogPathDefaultsUnderCacheDir(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if filepath.Dir(cfg.RunLog.Path) != cfg.Paths.CacheDir {
		t.Errorf("run log %q should live under cache dir %q", cfg.RunLog.Path, cfg.Paths.CacheDir)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[conversion]") {
		t.Error("sample config should contain the conversion section")
	}
}

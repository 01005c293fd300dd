package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/keydrill/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.Words != nil || cfg.Practice.Branch != nil {
		t.Errorf("missing file should yield zero config, got %+v", cfg)
	}
	if got := cfg.Params(); got != engine.DefaultParams() {
		t.Errorf("missing file Params = %+v, want defaults", got)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadConfigParsesSections(t *testing.T) {
	path := writeConfig(t, `
[practice]
words = 40
branch = "capitals"

[engine]
target-cpm = 200.0
streak-required = 5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Practice.Words == nil || *cfg.Practice.Words != 40 {
		t.Errorf("words = %v, want 40", cfg.Practice.Words)
	}
	if cfg.Practice.Branch == nil || *cfg.Practice.Branch != "capitals" {
		t.Errorf("branch = %v, want capitals", cfg.Practice.Branch)
	}

	params := cfg.Params()
	if params.TargetCPM != 200 {
		t.Errorf("TargetCPM = %v, want 200", params.TargetCPM)
	}
	if params.StreakRequired != 5 {
		t.Errorf("StreakRequired = %d, want 5", params.StreakRequired)
	}
	defaults := engine.DefaultParams()
	if params.EMAAlpha != defaults.EMAAlpha {
		t.Errorf("EMAAlpha = %v, want default %v", params.EMAAlpha, defaults.EMAAlpha)
	}
	if params.MaxTrigramEntries != defaults.MaxTrigramEntries {
		t.Errorf("MaxTrigramEntries = %v, want default %v", params.MaxTrigramEntries, defaults.MaxTrigramEntries)
	}
}

func TestParamsIgnoresOutOfRangeStreak(t *testing.T) {
	path := writeConfig(t, `
[engine]
streak-required = 0
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.Params().StreakRequired; got != engine.DefaultParams().StreakRequired {
		t.Errorf("StreakRequired = %d, want default", got)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := writeConfig(t, `[practice`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected decode error")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(EnvHome, "")

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}

	home, _ := os.UserHomeDir()
	expectedHome := filepath.Join(home, ".dumpbot")

	if cfg.HomeDir != expectedHome {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, expectedHome)
	}
	if cfg.ConfigFile != filepath.Join(expectedHome, "config.toml") {
		t.Errorf("ConfigFile = %q, want %q", cfg.ConfigFile, filepath.Join(expectedHome, "config.toml"))
	}
	if cfg.EnvFile != filepath.Join(expectedHome, ".env") {
		t.Errorf("EnvFile = %q, want %q", cfg.EnvFile, filepath.Join(expectedHome, ".env"))
	}
}

func TestDefaultConfig_WithHomeOverride(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "bot")
	t.Setenv(EnvHome, custom)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig() failed: %v", err)
	}
	if cfg.HomeDir != custom {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, custom)
	}
	if cfg.ConfigFile != filepath.Join(custom, "config.toml") {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := &Config{HomeDir: filepath.Join(t.TempDir(), "nested", "dumpbot")}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() failed: %v", err)
	}
	info, err := os.Stat(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", cfg.HomeDir)
	}
}

func TestDurationGetters(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		get   func() time.Duration
		want  time.Duration
	}{
		{"api default", EnvAPITimeout, "", GetAPITimeout, DefaultAPITimeout},
		{"api custom", EnvAPITimeout, "45s", GetAPITimeout, 45 * time.Second},
		{"api invalid", EnvAPITimeout, "soon", GetAPITimeout, DefaultAPITimeout},
		{"api too low", EnvAPITimeout, "100ms", GetAPITimeout, time.Second},
		{"api too high", EnvAPITimeout, "1h", GetAPITimeout, 10 * time.Minute},
		{"probe default", EnvProbeTimeout, "", GetProbeTimeout, 10 * time.Second},
		{"probe custom", EnvProbeTimeout, "3s", GetProbeTimeout, 3 * time.Second},
		{"probe too high", EnvProbeTimeout, "5m", GetProbeTimeout, 2 * time.Minute},
		{"dispatch default", EnvDispatchDelay, "", GetDispatchDelay, time.Second},
		{"dispatch zero", EnvDispatchDelay, "0s", GetDispatchDelay, 0},
		{"dispatch negative", EnvDispatchDelay, "-2s", GetDispatchDelay, 0},
		{"settle default", EnvSettleDelay, "", GetSettleDelay, 4 * time.Second},
		{"settle custom", EnvSettleDelay, "6s", GetSettleDelay, 6 * time.Second},
		{"settle too high", EnvSettleDelay, "2m", GetSettleDelay, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			if got := tt.get(); got != tt.want {
				t.Errorf("%s=%q: got %v, want %v", tt.env, tt.value, got, tt.want)
			}
		})
	}
}

func TestGitHubURLs(t *testing.T) {
	t.Setenv(EnvGitHubAPIURL, "")
	t.Setenv(EnvGitHubWebURL, "")
	if GetGitHubAPIURL() != "" || GetGitHubWebURL() != "" {
		t.Error("expected empty URLs by default")
	}

	t.Setenv(EnvGitHubAPIURL, "https://ghe.example.com/api/v3")
	t.Setenv(EnvGitHubWebURL, "https://ghe.example.com")
	if got := GetGitHubAPIURL(); got != "https://ghe.example.com/api/v3" {
		t.Errorf("GetGitHubAPIURL() = %q", got)
	}
	if got := GetGitHubWebURL(); got != "https://ghe.example.com" {
		t.Errorf("GetGitHubWebURL() = %q", got)
	}
}

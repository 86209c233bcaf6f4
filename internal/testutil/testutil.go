package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsukumogami/dumpbot/internal/config"
)

// Names match userconfig and secrets; listed here so those packages can use
// these helpers in their own tests.
var isolatedEnv = []string{
	"DUMPBOT_REPO",
	"DUMPBOT_WORKFLOW",
	"DUMPBOT_REF",
	"DUMPBOT_ADMINS",
	"TELEGRAM_BOT_TOKEN",
	"TG_TOKEN",
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// Home points DUMPBOT_HOME at a fresh temporary directory and blanks every
// setting and token variable for the duration of the test.
func Home(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	for _, env := range isolatedEnv {
		t.Setenv(env, "")
	}
	return home
}

// WriteConfig writes config.toml into home.
func WriteConfig(t *testing.T, home, content string) string {
	t.Helper()
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// WriteFile writes content to name inside dir, creating parents.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

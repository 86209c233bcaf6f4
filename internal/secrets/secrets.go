// Package secrets resolves the bot's tokens.
//
// Secrets are resolved by checking environment variables first, then
// the [secrets] section in $DUMPBOT_HOME/config.toml. If neither source
// has a value, an error with guidance is returned.
//
// Each known secret is defined in the knownKeys table (specs.go), which maps
// a canonical name to one or more environment variable aliases. Requesting
// an unknown key returns an error.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tsukumogami/dumpbot/internal/userconfig"
)

// KeyInfo describes a registered secret for external consumers.
type KeyInfo struct {
	// Name is the canonical key name (e.g., "github_token").
	Name string

	// EnvVars lists environment variables checked, in priority order.
	EnvVars []string

	// Desc is a human-readable description.
	Desc string
}

var (
	configOnce  sync.Once
	cachedCfg   *userconfig.Config
	configError error
)

func getConfig() (*userconfig.Config, error) {
	configOnce.Do(func() {
		cachedCfg, configError = userconfig.Load()
	})
	return cachedCfg, configError
}

// ResetConfig resets the cached config so the next call to Get()/IsSet()
// reloads from disk. This is intended for testing only.
func ResetConfig() {
	configOnce = sync.Once{}
	cachedCfg = nil
	configError = nil
}

// Get resolves a secret by name, checking environment variables first,
// then the [secrets] section in config.toml.
func Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}

	if val := fromEnv(spec); val != "" {
		return val, nil
	}
	if val := fromConfig(name); val != "" {
		return val, nil
	}

	envList := strings.Join(spec.EnvVars, " or ")
	return "", fmt.Errorf(
		"%s not configured. Set the %s environment variable, or run 'dumpbot config set-secret %s'",
		name, envList, name,
	)
}

// IsSet checks whether a secret is available without returning its value.
// Returns false for unknown keys.
func IsSet(name string) bool {
	spec, ok := knownKeys[name]
	if !ok {
		return false
	}
	return fromEnv(spec) != "" || fromConfig(name) != ""
}

// IsKnown reports whether name is a registered secret.
func IsKnown(name string) bool {
	_, ok := knownKeys[name]
	return ok
}

func fromEnv(spec KeySpec) string {
	for _, env := range spec.EnvVars {
		if val := os.Getenv(env); val != "" {
			return val
		}
	}
	return ""
}

func fromConfig(name string) string {
	cfg, err := getConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return cfg.Secrets[name]
}

// KnownKeys returns metadata for all registered secrets, sorted by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{
			Name:    name,
			EnvVars: spec.EnvVars,
			Desc:    spec.Desc,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return keys
}

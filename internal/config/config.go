package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// EnvHome is the environment variable to override the default dumpbot home directory
	EnvHome = "DUMPBOT_HOME"

	// EnvAPITimeout configures the timeout for GitHub and Telegram API requests
	EnvAPITimeout = "DUMPBOT_API_TIMEOUT"

	// EnvProbeTimeout configures the timeout of a single archive probe request
	EnvProbeTimeout = "DUMPBOT_PROBE_TIMEOUT"

	// EnvDispatchDelay configures the pause before a workflow dispatch
	EnvDispatchDelay = "DUMPBOT_DISPATCH_DELAY"

	// EnvSettleDelay configures the pause between a dispatch and the run lookup
	EnvSettleDelay = "DUMPBOT_SETTLE_DELAY"

	// EnvLogLevel overrides the log level chosen by CLI flags
	EnvLogLevel = "DUMPBOT_LOG_LEVEL"

	// EnvGitHubAPIURL points the Actions client at a GitHub Enterprise API
	EnvGitHubAPIURL = "DUMPBOT_GITHUB_API_URL"

	// EnvGitHubWebURL is the matching web root used for run links
	EnvGitHubWebURL = "DUMPBOT_GITHUB_WEB_URL"

	// DefaultAPITimeout is the default timeout for API requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultProbeTimeout is the default timeout per probe attempt (10 seconds)
	DefaultProbeTimeout = 10 * time.Second

	// DefaultDispatchDelay is the default pause before dispatching (1 second)
	DefaultDispatchDelay = 1 * time.Second

	// DefaultSettleDelay is the default pause before looking up the new run (4 seconds)
	DefaultSettleDelay = 4 * time.Second
)

// GetAPITimeout returns the API timeout from DUMPBOT_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout. Clamped to 1s..10m.
func GetAPITimeout() time.Duration {
	return durationFromEnv(EnvAPITimeout, DefaultAPITimeout, 1*time.Second, 10*time.Minute)
}

// GetProbeTimeout returns the per-attempt probe timeout from DUMPBOT_PROBE_TIMEOUT.
// If not set or invalid, returns DefaultProbeTimeout. Clamped to 1s..2m.
func GetProbeTimeout() time.Duration {
	return durationFromEnv(EnvProbeTimeout, DefaultProbeTimeout, 1*time.Second, 2*time.Minute)
}

// GetDispatchDelay returns the pre-dispatch pause from DUMPBOT_DISPATCH_DELAY.
// If not set or invalid, returns DefaultDispatchDelay. Clamped to 0..1m.
func GetDispatchDelay() time.Duration {
	return durationFromEnv(EnvDispatchDelay, DefaultDispatchDelay, 0, time.Minute)
}

// GetSettleDelay returns the post-dispatch pause from DUMPBOT_SETTLE_DELAY.
// If not set or invalid, returns DefaultSettleDelay. Clamped to 0..1m.
func GetSettleDelay() time.Duration {
	return durationFromEnv(EnvSettleDelay, DefaultSettleDelay, 0, time.Minute)
}

// GetGitHubAPIURL returns DUMPBOT_GITHUB_API_URL, or "" for api.github.com.
func GetGitHubAPIURL() string {
	return os.Getenv(EnvGitHubAPIURL)
}

// GetGitHubWebURL returns DUMPBOT_GITHUB_WEB_URL, or "" for github.com.
func GetGitHubWebURL() string {
	return os.Getenv(EnvGitHubWebURL)
}

// durationFromEnv parses a duration string like "30s" or "2m30s" from the
// named variable. Invalid values warn on stderr and fall back to def;
// out-of-range values are clamped with a warning.
func durationFromEnv(name string, def, minimum, maximum time.Duration) time.Duration {
	envValue := os.Getenv(name)
	if envValue == "" {
		return def
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			name, envValue, def)
		return def
	}

	if duration < minimum {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum %v\n",
			name, duration, minimum)
		return minimum
	}
	if duration > maximum {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum %v\n",
			name, duration, maximum)
		return maximum
	}

	return duration
}

// Config holds dumpbot file locations
type Config struct {
	HomeDir    string // $DUMPBOT_HOME
	ConfigFile string // $DUMPBOT_HOME/config.toml
	EnvFile    string // $DUMPBOT_HOME/.env
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".dumpbot")
	}

	return &Config{
		HomeDir:    home,
		ConfigFile: filepath.Join(home, "config.toml"),
		EnvFile:    filepath.Join(home, ".env"),
	}, nil
}

// EnsureDirectories creates the home directory
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.HomeDir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.HomeDir, err)
	}
	return nil
}

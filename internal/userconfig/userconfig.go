// Package userconfig provides the bot's persistent settings.
// Configuration is stored in $DUMPBOT_HOME/config.toml and can be modified
// via the `dumpbot config` command. DUMPBOT_* environment variables override
// file values at load time.
package userconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tsukumogami/dumpbot/internal/config"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvRepo     = "DUMPBOT_REPO"
	EnvWorkflow = "DUMPBOT_WORKFLOW"
	EnvRef      = "DUMPBOT_REF"
	EnvAdmins   = "DUMPBOT_ADMINS"
)

// Config represents user-configurable settings.
type Config struct {
	// Repo is the GitHub repository hosting the dump workflow, as owner/name.
	Repo string `toml:"repo"`

	// Workflow is the workflow to dispatch: a numeric id or a file name
	// such as "dump.yml".
	Workflow string `toml:"workflow"`

	// Ref is the git ref the workflow runs on. Default "master".
	Ref string `toml:"ref"`

	// Admins lists the Telegram user ids allowed to issue commands.
	Admins []int64 `toml:"admins"`

	// MaxConcurrent bounds how many commands are handled at once. Default 4.
	MaxConcurrent int `toml:"max_concurrent"`

	// HealthAddr enables the /healthz endpoint when non-empty (e.g. ":8080").
	HealthAddr string `toml:"health_addr,omitempty"`

	// Secrets holds tokens when they are not provided through the
	// environment. See package secrets.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Ref:           "master",
		MaxConcurrent: 4,
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
// The file may hold tokens, so it is created owner-only.
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides file values with DUMPBOT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvRepo); v != "" {
		c.Repo = v
	}
	if v := os.Getenv(EnvWorkflow); v != "" {
		c.Workflow = v
	}
	if v := os.Getenv(EnvRef); v != "" {
		c.Ref = v
	}
	if v := os.Getenv(EnvAdmins); v != "" {
		ids, err := ParseAdmins(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAdmins, err)
		}
		c.Admins = ids
	}
	return nil
}

// Validate reports settings that make the bot unusable.
func (c *Config) Validate() error {
	var errs []error
	if !validRepo(c.Repo) {
		errs = append(errs, fmt.Errorf("repo must be owner/name, got %q", c.Repo))
	}
	if c.Workflow == "" {
		errs = append(errs, errors.New("workflow is not set"))
	}
	if c.Ref == "" {
		errs = append(errs, errors.New("ref is not set"))
	}
	if c.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent must be at least 1, got %d", c.MaxConcurrent))
	}
	return errors.Join(errs...)
}

// validRepo reports whether s has the owner/name form.
func validRepo(s string) bool {
	owner, name, ok := strings.Cut(s, "/")
	return ok && owner != "" && name != "" && !strings.Contains(name, "/")
}

// ParseAdmins parses a comma or whitespace separated list of Telegram user ids.
func ParseAdmins(s string) ([]int64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "repo":
		return c.Repo, true
	case "workflow":
		return c.Workflow, true
	case "ref":
		return c.Ref, true
	case "admins":
		parts := make([]string, len(c.Admins))
		for i, id := range c.Admins {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return strings.Join(parts, ","), true
	case "max_concurrent":
		return strconv.Itoa(c.MaxConcurrent), true
	case "health_addr":
		return c.HealthAddr, true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "repo":
		value = strings.TrimSpace(value)
		if !validRepo(value) {
			return fmt.Errorf("invalid value for repo: must be owner/name, got %q", value)
		}
		c.Repo = value
	case "workflow":
		c.Workflow = value
	case "ref":
		if value == "" {
			return fmt.Errorf("invalid value for ref: must not be empty")
		}
		c.Ref = value
	case "admins":
		ids, err := ParseAdmins(value)
		if err != nil {
			return fmt.Errorf("invalid value for admins: %w", err)
		}
		c.Admins = ids
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for max_concurrent: must be a positive integer")
		}
		c.MaxConcurrent = n
	case "health_addr":
		c.HealthAddr = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// SetSecret stores a token under [secrets].
func (c *Config) SetSecret(name, value string) {
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	c.Secrets[name] = value
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	return map[string]string{
		"repo":           "GitHub repository running the dump workflow (owner/name)",
		"workflow":       "Workflow id or file name to dispatch (e.g. dump.yml)",
		"ref":            "Git ref the workflow runs on (default master)",
		"admins":         "Comma-separated Telegram user ids allowed to use the bot",
		"max_concurrent": "Commands handled at once (default 4)",
		"health_addr":    "Listen address for /healthz, empty to disable",
	}
}

// SortedKeys returns AvailableKeys' names in order, for display.
func SortedKeys() []string {
	keys := make([]string, 0, len(AvailableKeys()))
	for k := range AvailableKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tsukumogami/dumpbot/internal/secrets"
	"github.com/tsukumogami/dumpbot/internal/userconfig"
)

// Overridable in tests.
var (
	stdinReader     io.Reader = os.Stdin
	stdinIsTerminal           = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dumpbot configuration",
	Long: `Manage dumpbot configuration settings.

Configuration is stored in $DUMPBOT_HOME/config.toml (default ~/.dumpbot).
DUMPBOT_REPO, DUMPBOT_WORKFLOW, DUMPBOT_REF and DUMPBOT_ADMINS override the
file when set.

Examples:
  dumpbot config set repo acme/firmware-dumps
  dumpbot config set workflow dump.yml
  dumpbot config set admins 12345678,87654321
  dumpbot config set-secret telegram_token`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit()

		value, ok := cfg.Get(args[0])
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]
		cfg := loadConfigOrExit()

		if err := cfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		fmt.Printf("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all settings and which secrets are set",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit()
		if err := cfg.ApplyEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		for _, k := range userconfig.SortedKeys() {
			v, _ := cfg.Get(k)
			if v == "" {
				v = "(not set)"
			}
			fmt.Printf("%-15s %s\n", k, v)
		}
		fmt.Println()
		for _, info := range secrets.KnownKeys() {
			state := "not set"
			if secrets.IsSet(info.Name) {
				state = "set"
			}
			fmt.Printf("%-15s %s (env: %s)\n", info.Name, state, strings.Join(info.EnvVars, ", "))
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "\nProblems:\n%v\n", err)
		}
	},
}

var configSetSecretCmd = &cobra.Command{
	Use:   "set-secret <name>",
	Short: "Store a token in config.toml",
	Long: `Store a token under [secrets] in config.toml. The value is read from
stdin, without echo when stdin is a terminal.

Known secrets:
  telegram_token   Telegram Bot API token
  github_token     GitHub token with the actions scope

Examples:
  dumpbot config set-secret telegram_token
  echo "$TOKEN" | dumpbot config set-secret github_token`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		if !isKnownSecret(name) {
			fmt.Fprintf(os.Stderr, "Unknown secret: %s\n", name)
			exitWithCode(ExitUsage)
		}

		value, err := readSecretFromStdin(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitUsage)
		}

		cfg := loadConfigOrExit()
		cfg.SetSecret(name, value)
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}
		fmt.Printf("%s saved\n", name)
	},
}

func loadConfigOrExit() *userconfig.Config {
	cfg, err := userconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	return cfg
}

func isKnownSecret(name string) bool {
	return secrets.IsKnown(name)
}

// readSecretFromStdin reads one line. On a terminal the user is prompted
// and the input is not echoed.
func readSecretFromStdin(name string) (string, error) {
	var line string
	if stdinIsTerminal() {
		fmt.Fprintf(os.Stderr, "Enter value for %s: ", name)
		if f, ok := stdinReader.(*os.File); ok {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return "", fmt.Errorf("failed to read from stdin: %w", err)
			}
			line = string(b)
		} else {
			l, err := readLine(stdinReader)
			if err != nil {
				return "", err
			}
			line = l
		}
	} else {
		l, err := readLine(stdinReader)
		if err != nil {
			return "", err
		}
		line = l
	}

	value := strings.TrimSpace(line)
	if value == "" {
		return "", errors.New("empty value")
	}
	return value, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return line, nil
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetSecretCmd)
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/dumpbot/internal/buildinfo"
	"github.com/tsukumogami/dumpbot/internal/config"
	"github.com/tsukumogami/dumpbot/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "dumpbot",
	Short: "Telegram bot that starts firmware dump workflows on GitHub Actions",
	Long: `dumpbot lets a fixed set of Telegram users start and cancel runs of a
GitHub Actions "dump" workflow. /dump <url> checks that the URL serves an
archive before dispatching; /cancel <run-id> cancels a run.

Settings live in $DUMPBOT_HOME/config.toml (default ~/.dumpbot). Tokens
are read from the environment first, then from the [secrets] table.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotEnv()
		def := slog.LevelWarn
		if cmd.Name() == "serve" {
			def = slog.LevelInfo
		}
		log.SetDefault(log.NewText(os.Stderr, determineLogLevel(def)))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log informational messages")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log debug messages")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// determineLogLevel picks the log level. Flags win over the environment;
// within each, debug beats verbose beats quiet. DUMPBOT_LOG_LEVEL is
// consulted after the boolean variables.
func determineLogLevel(def slog.Level) slog.Level {
	switch {
	case debugFlag:
		return slog.LevelDebug
	case verboseFlag:
		return slog.LevelInfo
	case quietFlag:
		return slog.LevelError
	case isTruthy(os.Getenv("DUMPBOT_DEBUG")):
		return slog.LevelDebug
	case isTruthy(os.Getenv("DUMPBOT_VERBOSE")):
		return slog.LevelInfo
	case isTruthy(os.Getenv("DUMPBOT_QUIET")):
		return slog.LevelError
	}
	if name := os.Getenv(config.EnvLogLevel); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v, using %s\n", err, def)
			return def
		}
		return level
	}
	return def
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitUsage)
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/dumpbot/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Read()
		fmt.Printf("dumpbot %s\n", info.Version)
		if verboseFlag || debugFlag {
			if info.Revision != "" {
				fmt.Printf("revision: %s (modified: %t)\n", info.Revision, info.Modified)
			}
			fmt.Printf("go: %s\n", info.GoVersion)
		}
	},
}

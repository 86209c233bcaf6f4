package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var probeSniff bool

var probeCmd = &cobra.Command{
	Use:   "probe <url>",
	Short: "Check whether a URL serves an archive",
	Long: `Run the same archive check /dump performs, without dispatching.

The check reads only the Content-Type header, trying HEAD and GET as a
mobile browser and then as curl. With --sniff, the first 4 KiB are also
downloaded and the archive format is identified from its signature.

Examples:
  dumpbot probe https://example.com/firmware.zip
  dumpbot probe --sniff https://example.com/firmware.zip`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		raw := strings.Join(args, " ")
		v := newValidator()
		ctx := context.Background()

		sp := startSpinner("Checking " + raw)
		res := v.Validate(ctx, raw)
		sp.Stop()
		ct := res.ContentType
		if ct == "" {
			ct = "(none)"
		}
		fmt.Printf("URL:          %s\n", raw)
		fmt.Printf("Valid:        %t\n", res.Valid)
		fmt.Printf("Reason:       %s\n", res.Reason)
		fmt.Printf("Content-Type: %s\n", ct)
		if res.Attempt != "" {
			fmt.Printf("Decided by:   %s\n", res.Attempt)
		}
		for _, f := range res.Failures {
			fmt.Printf("  failed: %v\n", f)
		}

		if probeSniff {
			sp := startSpinner("Reading archive header")
			format, err := v.Sniff(ctx, raw)
			sp.Stop()
			switch {
			case err != nil && format != "":
				fmt.Printf("Format:       %s (header check failed: %v)\n", format, err)
			case err != nil:
				fmt.Printf("Format:       unknown (%v)\n", err)
			default:
				fmt.Printf("Format:       %s\n", format)
			}
		}

		if !res.Valid {
			exitWithCode(ExitRejected)
		}
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeSniff, "sniff", false, "Also download the first bytes and identify the archive format")
}

// Package main is the entry point for the fetchctl CLI.
//
// fetchctl runs one batch of concurrent URL fetches with bounded
// concurrency, retries, and optional bearer authentication.
//
// Usage:
//
//	fetchctl fetch https://example.com/a https://example.com/b
//	fetchctl fetch --file urls.txt
//	fetchctl version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

// rootCmd is the base command; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "fetchctl",
	Short: "Concurrent HTTP URL fetcher",
	Long: `fetchctl fetches a batch of URLs over HTTP with a bounded number of
requests in flight at once, retrying transient failures with linear backoff.

Configuration is read from the environment (or a .env file):
  CONCURRENCY      max requests in flight (default 100)
  MAX_RETRIES      retries per URL after the first attempt (default 2)
  BACKOFF_BASE_MS  linear backoff unit in milliseconds (default 500)
  LOG_LEVEL        debug|info|warn|error (default info)
  AUTH_URL         JSON login endpoint (enables bearer auth)
  REDIS_ADDR       shared token store address (optional)`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fetchctl %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootCmd runs the server when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley chat backend",
	Long: `Parley serves the chat API: users, conversations, messages and
notifications behind a request logger, a time window gate, a rate limiter
and a role gate.

Configuration is read from the environment (and a .env file when present).
The admission policy may be overridden with POLICY_FILE.`,
	Version: version,
	RunE:    runServe,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true
}

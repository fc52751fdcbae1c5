// Package cmd implements the finch command-line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/finch-ai/finch/internal/log"
)

var (
	flagVerbose bool
	flagJSONLog bool
)

var rootCmd = &cobra.Command{
	Use:   "finch",
	Short: "Finch answers questions about your projects",
	Long: `Finch is a retrieval-augmented project assistant. It combines your
project's documents, emails, and meeting notes with a semantic knowledge
base and streams grounded answers from a language model, keeping multi-turn
conversation history per session.

Run "finch serve" to start the HTTP API, or "finch ask" for a one-off
question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLog, "json-log", false, "log in JSON format")
}

// newLogger builds the process logger from the persistent flags.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: flagJSONLog})
}

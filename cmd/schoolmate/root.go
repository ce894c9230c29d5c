package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "schoolmate",
	Short: "AI Schoolmate is a school assistant agent",
	Long: `AI Schoolmate answers student questions by combining grade analytics,
upcoming events, personalized advice and exam predictions with a reasoning engine.

Configuration is read from SCHOOLMATE_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides SCHOOLMATE_DB_PATH)")
}

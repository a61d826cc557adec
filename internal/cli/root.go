// Package cli implements the fitsync command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:   "fitsync",
	Short: "fitsync syncs Strava activities and Withings measurements into a workout log",
	Long: "fitsync ingests Strava activities and Withings body measurements, computes training metrics " +
		"and keeps a workout log in Notion or a local SQLite database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides storage.db_path)")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitsync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the fitsync config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := config.CreateExample()
		if err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s/config.json\n", dir)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s/config.json\n", dir)
		fmt.Fprintln(cmd.OutOrStdout(), "Add your Strava API credentials from https://www.strava.com/settings/api")
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config OK (backend %s, timeout %s)\n", cfg.Storage.Backend, cfg.Timeout())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

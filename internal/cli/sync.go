package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync <activity-id>",
	Short: "Ingest one Strava activity into the workout log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseInt64Arg("activity id", args[0])
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			res, err := a.coordinator.ProcessActivity(cmd.Context(), id)
			if err != nil {
				return err
			}
			verb := "Updated"
			if res.Created {
				verb = "Created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s workout %s for activity %d\n", verb, res.PageID, res.ActivityID)
			m := res.Metrics
			fmt.Fprintf(cmd.OutOrStdout(), "HR drift:\t%.2f%%\nVO2 max:\t%.2f min\nIF:\t%s\nTSS:\t%s\n",
				m.HRDrift, m.VO2MaxMinutes, optional(m.IntensityFactor), optional(m.TSS))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

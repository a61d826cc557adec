package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	summaryDays int
	summaryJSON bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show body trends, recent workouts and training form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDays(summaryDays); err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			s, err := a.summary.Get(cmd.Context(), summaryDays)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if summaryJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			p := s.Athlete
			fmt.Fprintf(out, "FTP:\t%s W\nWeight:\t%s kg\nMax HR:\t%s\nResting HR:\t%s\n\n",
				optional(p.FTP), optional(p.WeightKg), optional(p.MaxHR), optional(p.RestingHR))
			printWorkouts(out, s.Workouts)
			fmt.Fprintf(out, "\nFitness (CTL):\t%.1f\nFatigue (ATL):\t%.1f\nForm (TSB):\t%.1f\t%s\n",
				s.Form.CTL, s.Form.ATL, s.Form.TSB, s.FormDescription)
			return nil
		})
	},
}

func init() {
	summaryCmd.Flags().IntVar(&summaryDays, "days", 42, "Number of days to look back")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}

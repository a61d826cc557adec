package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"fitsync/internal/service"
)

var (
	bodyDays  int
	bodyChart bool
)

var bodyCmd = &cobra.Command{
	Use:   "body",
	Short: "Show Withings body measurements with 7-sample moving averages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDays(bodyDays); err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			res, err := a.measurements.List(cmd.Context(), bodyDays)
			if err != nil {
				return err
			}
			printMeasurements(cmd.OutOrStdout(), res)
			if bodyChart {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), weightChart(res))
			}
			return nil
		})
	},
}

func printMeasurements(out io.Writer, res *service.BodyMeasurementsResponse) {
	if len(res.Measurements) == 0 {
		fmt.Fprintln(out, "No measurements found.")
		return
	}
	fmt.Fprintln(out, "DATE\tWEIGHT_KG\tBODY_FAT%\tMUSCLE_KG\tWEIGHT_7D")
	for _, m := range res.Measurements {
		avg := "-"
		if m.MovingAverage7d != nil {
			avg = fmt.Sprintf("%.2f", m.MovingAverage7d.WeightKg)
		}
		fmt.Fprintf(out, "%s\t%.2f\t%.2f\t%.2f\t%s\n",
			m.MeasuredAt.Local().Format("2006-01-02 15:04"), m.WeightKg, m.BodyFatPercent, m.MuscleMassKg, avg)
	}

	if len(res.Trends) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "METRIC\tSLOPE_PER_DAY\tR2")
	names := make([]string, 0, len(res.Trends))
	for name := range res.Trends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := res.Trends[name]
		fmt.Fprintf(out, "%s\t%.4f\t%.3f\n", name, t.Slope, t.R2)
	}
}

// weightChart plots weight over the measurement series.
func weightChart(res *service.BodyMeasurementsResponse) string {
	if len(res.Measurements) < 2 {
		return "Not enough measurements to chart."
	}
	data := make([]float64, len(res.Measurements))
	for i, m := range res.Measurements {
		data[i] = m.WeightKg
	}
	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(2),
		asciigraph.Caption("Weight (kg)"),
	)
}

func init() {
	bodyCmd.Flags().IntVar(&bodyDays, "days", 7, "Number of days to look back")
	bodyCmd.Flags().BoolVar(&bodyChart, "chart", false, "Plot weight as an ASCII chart")
	rootCmd.AddCommand(bodyCmd)
}

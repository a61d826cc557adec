package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fitsync/internal/service"
	"fitsync/internal/workouts"
)

var workoutsCmd = &cobra.Command{
	Use:   "workouts",
	Short: "Browse and maintain the workout log",
}

var workoutsDays int

var workoutsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent workouts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDays(workoutsDays); err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			list, err := a.workoutLog.List(cmd.Context(), workoutsDays)
			if err != nil {
				return err
			}
			printWorkouts(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

var workoutsFillCmd = &cobra.Command{
	Use:   "fill <page-id>",
	Short: "Estimate missing IF and TSS for a stored workout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			w, err := a.workoutLog.Fill(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: type %s, IF %s, TSS %s\n",
				w.PageID, w.Type, optional(w.IntensityFactor), optional(w.TSS))
			return nil
		})
	},
}

var (
	manualName     string
	manualStart    string
	manualDuration time.Duration
	manualDistance float64
	manualType     string
	manualAvgHR    float64
	manualMaxHR    float64
	manualNotes    string
)

var workoutsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a workout by hand",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		if manualStart != "" {
			t, err := time.Parse(time.RFC3339, manualStart)
			if err != nil {
				return fmt.Errorf("invalid --start %q (expected RFC3339)", manualStart)
			}
			start = t
		}
		m := service.ManualWorkout{
			Name:      manualName,
			StartTime: start,
			DurationS: manualDuration.Seconds(),
			DistanceM: manualDistance,
			Type:      manualType,
			Notes:     manualNotes,
		}
		if cmd.Flags().Changed("avg-hr") {
			m.AverageHeartrate = &manualAvgHR
		}
		if cmd.Flags().Changed("max-hr") {
			m.MaxHeartrate = &manualMaxHR
		}
		if err := m.Validate(); err != nil {
			return err
		}
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			res, err := a.workoutLog.CreateManual(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged workout %d: IF %s, TSS %s\n",
				res.ID, optional(res.IntensityFactor), optional(res.TSS))
			return nil
		})
	},
}

func printWorkouts(out io.Writer, list []workouts.Workout) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No workouts found.")
		return
	}
	fmt.Fprintln(out, "DATE\tTYPE\tNAME\tDURATION\tDISTANCE_KM\tIF\tTSS")
	for _, w := range list {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%.2f\t%s\t%s\n",
			w.Date, w.Type, w.Name, formatDuration(w.DurationS), w.DistanceM/1000,
			optional(w.IntensityFactor), optional(w.TSS))
	}
}

func init() {
	workoutsListCmd.Flags().IntVar(&workoutsDays, "days", 7, "Number of days to look back")

	workoutsAddCmd.Flags().StringVar(&manualName, "name", "", "Workout name")
	workoutsAddCmd.Flags().StringVar(&manualStart, "start", "", "Start time in RFC3339 (default now)")
	workoutsAddCmd.Flags().DurationVar(&manualDuration, "duration", 0, "Duration, e.g. 45m")
	workoutsAddCmd.Flags().Float64Var(&manualDistance, "distance", 0, "Distance in meters")
	workoutsAddCmd.Flags().StringVar(&manualType, "type", "", "Workout type (default Workout)")
	workoutsAddCmd.Flags().Float64Var(&manualAvgHR, "avg-hr", 0, "Average heart rate")
	workoutsAddCmd.Flags().Float64Var(&manualMaxHR, "max-hr", 0, "Max heart rate")
	workoutsAddCmd.Flags().StringVar(&manualNotes, "notes", "", "Free-form notes")
	_ = workoutsAddCmd.MarkFlagRequired("name")
	_ = workoutsAddCmd.MarkFlagRequired("duration")

	workoutsCmd.AddCommand(workoutsListCmd, workoutsFillCmd, workoutsAddCmd)
	rootCmd.AddCommand(workoutsCmd)
}

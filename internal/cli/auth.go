package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitsync/internal/auth"
)

var authPort int

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize fitsync with Strava or Withings",
}

var authStravaCmd = &cobra.Command{
	Use:   "strava",
	Short: "Run the Strava OAuth flow and cache the tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			a.stravaAuth.OAuth.RedirectURL = auth.CallbackURL(authPort)
			return authorize(cmd, a.stravaAuth, a.stravaBroker)
		})
	},
}

var authWithingsCmd = &cobra.Command{
	Use:   "withings",
	Short: "Run the Withings OAuth flow and cache the tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), cmd.ErrOrStderr(), cmd.ErrOrStderr(), func(a *app) error {
			if a.cfg.Withings.ClientID == "" || a.cfg.Withings.ClientSecret == "" {
				return fmt.Errorf("withings client_id and client_secret are required")
			}
			a.withingsAuth.Config.RedirectURL = auth.CallbackURL(authPort)
			return authorize(cmd, a.withingsAuth, a.withingsBroker)
		})
	},
}

func authorize(cmd *cobra.Command, flow auth.Flow, broker *auth.Broker) error {
	cred, err := auth.Authenticate(cmd.Context(), flow, authPort, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("authenticating with %s: %w", flow.Name(), err)
	}
	if err := broker.Store(cmd.Context(), cred); err != nil {
		return fmt.Errorf("saving %s tokens: %w", flow.Name(), err)
	}
	if cred.Account != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s authorized for account %s.\n", flow.Name(), cred.Account)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s authorized.\n", flow.Name())
	return nil
}

func init() {
	authCmd.PersistentFlags().IntVar(&authPort, "port", auth.CallbackPort, "Local port for the OAuth callback")
	authCmd.AddCommand(authStravaCmd, authWithingsCmd)
	rootCmd.AddCommand(authCmd)
}

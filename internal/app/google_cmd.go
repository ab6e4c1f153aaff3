package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/klokku/meetstats/pkg/google"
	"github.com/spf13/cobra"
)

func newCalendarsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars",
		Short: "List the Google calendars available to the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			service := google.NewService(google.NewGoogleAuth(cfg.Source.Google))
			calendars, err := service.ListCalendars(cmd.Context())
			if errors.Is(err, google.ErrUnauthenticated) {
				return fmt.Errorf("%w (meetstats login)", err)
			} else if err != nil {
				return err
			}
			for _, c := range calendars {
				marker := " "
				if c.ID == cfg.Source.Google.CalendarId {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", marker, accentStyle.Render(c.ID), c.Summary)
			}
			return nil
		},
	}
}

func newLoginCommand(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize read access to Google Calendar",
		Long: `Open the Google consent page in a browser. Google redirects back to a
temporary listener on this machine, so the OAuth client must allow loopback
redirects (a "Desktop app" client does).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.Google.ClientId == "" {
				return errors.New("source.google.clientid is not configured")
			}
			session, err := google.NewGoogleAuth(cfg.Source.Google).StartLogin(listen)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Open this page and allow access:")
			fmt.Fprintln(cmd.OutOrStdout(), accentStyle.Render(session.URL()))
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Waiting for Google to redirect back..."))

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := session.Wait(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), passStyle.Render("Google Calendar connected, token saved to "+cfg.Source.Google.TokenFile))
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "127.0.0.1:0", "Loopback address for the redirect listener")
	return cmd
}

func newLogoutCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored Google token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if err := google.NewGoogleAuth(cfg.Source.Google).Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Google token removed")
			return nil
		},
	}
}

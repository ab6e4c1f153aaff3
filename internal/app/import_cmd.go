package app

import (
	"errors"
	"fmt"

	"github.com/klokku/meetstats/pkg/calendar"
	"github.com/klokku/meetstats/pkg/calendar_provider"
	"github.com/klokku/meetstats/pkg/export"
	"github.com/klokku/meetstats/pkg/ics"
	"github.com/spf13/cobra"
)

func newImportCommand(root *rootOptions) *cobra.Command {
	var filter filterOptions
	var replace bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy events from the configured source into Postgres",
		Long: `Read events from the calendar source and store them, so later reports can use
--source postgres without access to the calendar itself.

Examples:
  meetstats import --source google --from 2024-01-01 --to 2024-12-31 --replace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Source.Type == calendar_provider.SourcePostgres {
				return errors.New("cannot import from postgres into itself, pick another --source")
			}
			deps, err := BuildDependencies(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer deps.Close()

			loc, err := deps.CalendarProvider.Location()
			if err != nil {
				return err
			}
			fromDate, toDate := filter.dates(deps.Clock.Now().In(loc))
			from, to, err := export.ParseRange(fromDate, toDate, loc)
			if err != nil {
				return err
			}
			result, err := deps.EventService.Import(cmd.Context(), deps.CalendarProvider, from, to, replace)
			if err != nil {
				return err
			}
			printImport(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.from, "from", "", "First day to import, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&filter.to, "to", "", "Last day to import, inclusive, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete previously stored events first")
	return cmd
}

func newImportIcsCommand(root *rootOptions) *cobra.Command {
	var filter filterOptions
	var replace bool
	cmd := &cobra.Command{
		Use:   "import-ics <file>",
		Short: "Store the events of an .ics file in Postgres",
		Long: `Read an exported .ics file and store its events. Recurring events are stored
as one row per occurrence between --from and --to.

Examples:
  meetstats import-ics calendar.ics --from 2024-01-01 --to 2024-12-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			deps, err := BuildDependencies(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer deps.Close()

			loc, err := deps.CalendarProvider.Location()
			if err != nil {
				return err
			}
			fromDate, toDate := filter.dates(deps.Clock.Now().In(loc))
			from, to, err := export.ParseRange(fromDate, toDate, loc)
			if err != nil {
				return err
			}
			result, err := deps.EventService.Import(cmd.Context(), ics.NewFileSource(args[0], loc), from, to, replace)
			if err != nil {
				return err
			}
			printImport(cmd, result)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.from, "from", "", "First day to import, YYYY-MM-DD (default: first day of this month)")
	cmd.Flags().StringVar(&filter.to, "to", "", "Last day to import, inclusive, YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete previously stored events first")
	return cmd
}

func printImport(cmd *cobra.Command, result calendar.ImportResult) {
	fmt.Fprintln(cmd.OutOrStdout(), passStyle.Render(fmt.Sprintf("Stored %d of %d events", result.Stored, result.Fetched)))
	if result.Skipped > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render(fmt.Sprintf("%d unreadable events skipped", result.Skipped)))
	}
}

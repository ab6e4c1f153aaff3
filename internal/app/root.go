package app

import (
	"fmt"
	"time"

	"github.com/klokku/meetstats/internal/config"
	"github.com/klokku/meetstats/pkg/calendar"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type rootOptions struct {
	configPath string
	verbose    bool
	source     string
}

// filterOptions are the flags shared by the commands that scan a calendar.
type filterOptions struct {
	from       string
	to         string
	statuses   []string
	categories string
	exclude    bool
}

func (o *filterOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.from, "from", "", "First day of the range, YYYY-MM-DD (default: first day of this month)")
	flags.StringVar(&o.to, "to", "", "Last day of the range, inclusive, YYYY-MM-DD (default: today)")
	flags.StringSliceVar(&o.statuses, "status", nil, "Meeting statuses to keep, by number or name (default from config)")
	flags.StringVar(&o.categories, "categories", "", "Comma separated category terms")
	flags.BoolVar(&o.exclude, "exclude", false, "Drop events matching --categories instead of keeping them")
}

// apply copies the flags the user set onto cfg.
func (o *filterOptions) apply(flags *pflag.FlagSet, cfg *config.Filter) error {
	if flags.Changed("status") {
		statuses := make([]int, 0, len(o.statuses))
		for _, raw := range o.statuses {
			if raw == "" {
				continue
			}
			status, err := calendar.ParseStatus(raw)
			if err != nil {
				return fmt.Errorf("%w: %v", config.ErrInvalidStatus, err)
			}
			statuses = append(statuses, int(status))
		}
		cfg.Statuses = statuses
	}
	if flags.Changed("categories") {
		cfg.Categories = o.categories
	}
	if flags.Changed("exclude") {
		cfg.Exclude = o.exclude
	}
	return nil
}

// dates returns the requested range, defaulting to the current month up to today.
func (o *filterOptions) dates(now time.Time) (string, string) {
	from, to := o.from, o.to
	if from == "" {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(time.DateOnly)
	}
	if to == "" {
		to = now.Format(time.DateOnly)
	}
	return from, to
}

// NewRootCommand builds the meetstats command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "meetstats",
		Short: "Summarise calendar meetings per month and subject",
		Long: `meetstats reads a calendar, keeps the meetings matching the status and category
filters and groups them by month and subject with their total duration.

Examples:
  meetstats export --from 2024-01-01 --to 2024-03-31      # Write a spreadsheet
  meetstats report --status 1 --categories Red --unit hours # Print a table
  meetstats serve                                        # Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.source, "source", "", "Calendar source: ics, google, postgres or stub (default from config)")

	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newImportIcsCommand(opts))
	rootCmd.AddCommand(newCalendarsCommand(opts))
	rootCmd.AddCommand(newLoginCommand(opts))
	rootCmd.AddCommand(newLogoutCommand(opts))
	return rootCmd
}

func (o *rootOptions) loadConfig() (config.Application, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Application{}, err
	}
	if o.source != "" {
		cfg.Source.Type = o.source
	}
	return cfg, nil
}

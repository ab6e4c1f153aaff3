package app

import (
	"encoding/json"
	"fmt"

	"github.com/klokku/meetstats/pkg/aggregate"
	"github.com/klokku/meetstats/pkg/export"
	"github.com/klokku/meetstats/pkg/report"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	filter     filterOptions
	unit       string
	jsonOutput bool
}

func newReportCommand(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the meeting summary as a table",
		Long: `Scan the calendar and print the aggregated rows without writing a file.

Examples:
  meetstats report --unit hours
  meetstats report --status Cancelled --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, root, opts)
		},
	}
	opts.filter.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.unit, "unit", "u", "", "Duration column to show: minutes, hours or days (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output rows as JSON")
	return cmd
}

func runReport(cmd *cobra.Command, root *rootOptions, opts *reportOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.filter.apply(cmd.Flags(), &cfg.Filter); err != nil {
		return err
	}
	if cmd.Flags().Changed("unit") {
		cfg.Report.Unit = opts.unit
	}
	unit, err := report.ParseUnit(cfg.Report.Unit)
	if err != nil {
		return err
	}

	deps, err := BuildDependencies(cmd.Context(), cfg, needsDatabase(cfg))
	if err != nil {
		return err
	}
	defer deps.Close()

	loc, err := deps.CalendarProvider.Location()
	if err != nil {
		return err
	}
	fromDate, toDate := opts.filter.dates(deps.Clock.Now().In(loc))
	from, to, err := export.ParseRange(fromDate, toDate, loc)
	if err != nil {
		return err
	}
	statuses, err := export.StatusesFromInts(cfg.Filter.Statuses)
	if err != nil {
		return err
	}

	progress := aggregate.NewChannelProgress(1)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for percent := range progress.C {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%s", accentStyle.Render(fmt.Sprintf("Scanning... %3d%%", percent)))
		}
	}()
	result, err := deps.ExportService.Preview(cmd.Context(), export.Request{
		From:       from,
		To:         to,
		Statuses:   statuses,
		Categories: cfg.Filter.Categories,
		Exclude:    cfg.Filter.Exclude,
	}, progress)
	progress.Close()
	<-printed
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.Rows)
	}

	fmt.Fprintln(out, report.NewTableRenderer(unit).Render(result.Rows))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d of %d events matched, %d unreadable", result.Matched, result.Processed, len(result.Diagnostics))))
	for _, d := range result.Diagnostics {
		fmt.Fprintln(cmd.ErrOrStderr(), failStyle.Render("  skipped "+d.String()))
	}
	return nil
}

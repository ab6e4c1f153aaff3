package app

import (
	"fmt"
	"io"
	"time"

	"github.com/klokku/meetstats/internal/event_bus"
	"github.com/klokku/meetstats/pkg/export"
	"github.com/klokku/meetstats/pkg/report"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	filter filterOptions
	out    string
	format string
	notify bool
}

func newExportCommand(root *rootOptions) *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the meeting summary to a file",
		Long: `Scan the calendar, aggregate matching meetings by month and subject and save the
result as outlook_meetings_<timestamp>.<format> in the output folder.

Examples:
  meetstats export --from 2024-01-01 --to 2024-01-31
  meetstats export --status 1,3 --categories "Red,Blue" --exclude --format csv --out ./reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, opts)
		},
	}
	opts.filter.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output folder (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "File format: xlsx, csv or json (default from config)")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Show a desktop notification when done")
	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *exportOptions) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.filter.apply(cmd.Flags(), &cfg.Filter); err != nil {
		return err
	}
	if cmd.Flags().Changed("out") {
		cfg.Report.OutputDir = opts.out
	}
	if cmd.Flags().Changed("format") {
		cfg.Report.Format = opts.format
	}
	if cmd.Flags().Changed("notify") {
		cfg.Report.Notify = opts.notify
	}
	format, err := report.ParseFormat(cfg.Report.Format)
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

	unsubscribe := subscribeProgress(deps.Bus, cmd.ErrOrStderr())
	defer unsubscribe()

	job, err := deps.ExportService.Run(cmd.Context(), export.Request{
		From:       from,
		To:         to,
		Statuses:   statuses,
		Categories: cfg.Filter.Categories,
		Exclude:    cfg.Filter.Exclude,
		Format:     format,
	})
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, passStyle.Render("Export complete. File saved to "+job.Path))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d rows, %d unreadable items skipped", job.Rows, job.Skipped)))
	return nil
}

// subscribeProgress prints the export percentage on one terminal line.
func subscribeProgress(bus *event_bus.EventBus, w io.Writer) func() {
	started := time.Now()
	return event_bus.SubscribeTyped(bus, event_bus.ExportProgressed, func(e event_bus.EventT[event_bus.ExportProgress]) error {
		_, err := fmt.Fprintf(w, "\r%s %s", accentStyle.Render(fmt.Sprintf("Exporting... %3d%%", e.Data.Percent)),
			mutedStyle.Render(time.Since(started).Round(time.Millisecond).String()))
		return err
	})
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/domain/report"
)

// storageOptions selects a storage backend from flags, optionally seeded
// from a scenario file.
type storageOptions struct {
	configPath string
	backend    string
	dsn        string
	address    string
	prefix     string
	eventsDir  string
}

func (o *storageOptions) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "Scenario file to take storage settings from")
	f.StringVar(&o.backend, "backend", "", "Report backend (memory, sqlite, redis, postgres)")
	f.StringVar(&o.dsn, "dsn", "", "sqlite path or postgres connection string")
	f.StringVar(&o.address, "address", "", "redis address")
	f.StringVar(&o.prefix, "prefix", "", "redis key prefix")
	f.StringVar(&o.eventsDir, "events-dir", "", "badger directory holding run events")
}

// resolve merges the scenario's storage section with flag overrides.
func (o *storageOptions) resolve() (domainconfig.StorageConfig, error) {
	var cfg domainconfig.StorageConfig
	if o.configPath != "" {
		scenario, err := loadScenario(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = scenario.Storage
	}
	if o.backend != "" {
		cfg.Backend = o.backend
	}
	if o.dsn != "" {
		cfg.DSN = o.dsn
	}
	if o.address != "" {
		cfg.Address = o.address
	}
	if o.prefix != "" {
		cfg.Prefix = o.prefix
	}
	if o.eventsDir != "" {
		cfg.EventsDir = o.eventsDir
	}
	return cfg, nil
}

// reportsOptions holds options for the reports command.
type reportsOptions struct {
	storage    storageOptions
	scenario   string
	status     []string
	limit      int
	offset     int
	orderBy    string
	descending bool
	summary    bool
	jsonOutput bool
}

// newReportsCmd creates the reports command.
func (a *App) newReportsCmd() *cobra.Command {
	opts := &reportsOptions{}

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List stored run reports",
		Long: `List, show or delete run reports kept in a report backend.

Examples:
  # Latest ten runs from a sqlite store
  droid reports --backend sqlite --dsn file:droid.db --limit 10 --desc

  # Runs of one scenario that hit the tick limit, using its storage settings
  droid reports -c patrol.yaml --scenario patrol --status exhausted

  # Aggregate statistics
  droid reports -c patrol.yaml --summary

  # One report as JSON
  droid reports show 4b9f... -c patrol.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReports(cmd.Context(), &opts.storage, func(ctx context.Context, store report.Store) error {
				return a.listReports(ctx, store, opts)
			})
		},
	}

	opts.storage.register(cmd)
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Only runs of this scenario")
	cmd.Flags().StringSliceVar(&opts.status, "status", nil, "Only runs with these statuses (completed, exhausted, cancelled)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum reports to list (0 = all)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Reports to skip")
	cmd.Flags().StringVar(&opts.orderBy, "order", string(report.OrderByStartTime), "Sort key (started_at, ticks, run_id)")
	cmd.Flags().BoolVar(&opts.descending, "desc", false, "Sort descending")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print aggregate statistics instead of a list")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	cmd.AddCommand(
		a.newReportShowCmd(&opts.storage),
		a.newReportDeleteCmd(&opts.storage),
	)

	return cmd
}

func (a *App) newReportShowCmd(storage *storageOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print one report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReports(cmd.Context(), storage, func(ctx context.Context, store report.Store) error {
				rep, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			})
		},
	}
}

func (a *App) newReportDeleteCmd(storage *storageOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete RUN_ID",
		Short: "Delete one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withReports(cmd.Context(), storage, func(ctx context.Context, store report.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "Deleted report %s\n", args[0])
				return nil
			})
		},
	}
}

// withReports opens the report store for the duration of fn.
func (a *App) withReports(ctx context.Context, storage *storageOptions, fn func(context.Context, report.Store) error) (err error) {
	cfg, err := storage.resolve()
	if err != nil {
		return err
	}
	store, closeStore, err := openReportStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeStore()) }()

	return fn(ctx, store)
}

func (o *reportsOptions) filter() (report.ListFilter, error) {
	f := report.ListFilter{
		Scenario:   o.scenario,
		Limit:      o.limit,
		Offset:     o.offset,
		OrderBy:    report.OrderBy(o.orderBy),
		Descending: o.descending,
	}
	if !f.OrderBy.IsValid() {
		return f, fmt.Errorf("invalid order: %s", o.orderBy)
	}
	for _, s := range o.status {
		status := report.Status(s)
		if !status.IsValid() {
			return f, fmt.Errorf("invalid status: %s", s)
		}
		f.Status = append(f.Status, status)
	}
	return f, nil
}

func (a *App) listReports(ctx context.Context, store report.Store, opts *reportsOptions) error {
	filter, err := opts.filter()
	if err != nil {
		return err
	}

	if opts.summary {
		return a.printReportSummary(ctx, store, filter, opts.jsonOutput)
	}

	reports, err := store.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	if len(reports) == 0 {
		fmt.Fprintln(a.stdout, "No reports found.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSCENARIO\tSTATUS\tTICKS\tSTARTED\tDURATION")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID, r.Scenario, r.Status, r.Ticks, r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration())
	}
	return tw.Flush()
}

// printReportSummary uses the store's own aggregation when it has one.
func (a *App) printReportSummary(ctx context.Context, store report.Store, filter report.ListFilter, jsonOutput bool) error {
	var summary report.Summary
	if sp, ok := store.(report.SummaryProvider); ok {
		s, err := sp.Summary(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to summarise reports: %w", err)
		}
		summary = s
	} else {
		filter.Limit, filter.Offset = 0, 0
		reports, err := store.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		summary = report.Summarize(reports)
	}

	if jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(a.stdout, "Runs: %d\n", summary.TotalRuns)
	fmt.Fprintf(a.stdout, "  Completed: %d\n", summary.CompletedRuns)
	fmt.Fprintf(a.stdout, "  Exhausted: %d\n", summary.ExhaustedRuns)
	fmt.Fprintf(a.stdout, "  Cancelled: %d\n", summary.CancelledRuns)
	fmt.Fprintf(a.stdout, "Average ticks: %.1f\n", summary.AverageTicks)
	fmt.Fprintf(a.stdout, "Average duration: %s\n", summary.AverageDuration)
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/droid-go/application"
	"github.com/felixgeelhaar/droid-go/domain/event"
)

// replayOptions holds options for the replay command.
type replayOptions struct {
	storage    storageOptions
	list       bool
	ticks      bool
	jsonOutput bool
}

// newReplayCmd creates the replay command.
func (a *App) newReplayCmd() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay [RUN_ID]",
		Short: "Reconstruct a run from its event log",
		Long: `Reconstruct a recorded run from its event log: the routine each agent
ran, every lifecycle transition and the cells it visited.

Only persistent event stores can be replayed, so the scenario must set
storage.events_dir (or pass --events-dir).

Examples:
  # List recorded runs
  droid replay --events-dir ./events --list

  # Agent timelines of one run
  droid replay 4b9f... --events-dir ./events

  # Walk the log tick by tick
  droid replay 4b9f... -c patrol.yaml --ticks`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd.Context(), args, opts)
		},
	}

	opts.storage.register(cmd)
	cmd.Flags().BoolVar(&opts.list, "list", false, "List recorded run IDs")
	cmd.Flags().BoolVar(&opts.ticks, "ticks", false, "Print the events of every tick")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the history as JSON")

	return cmd
}

func (a *App) replay(ctx context.Context, args []string, opts *replayOptions) (err error) {
	cfg, err := opts.storage.resolve()
	if err != nil {
		return err
	}
	if cfg.EventsDir == "" {
		return errors.New("an events directory is required (--events-dir or storage.events_dir)")
	}
	store, closeStore, err := openEventStore(cfg.EventsDir)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeStore()) }()

	if opts.list {
		q, ok := store.(event.Querier)
		if !ok {
			return errors.New("event store cannot list runs")
		}
		runs, err := q.ListRuns(ctx)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		for _, id := range runs {
			fmt.Fprintln(a.stdout, id)
		}
		return nil
	}

	if len(args) == 0 {
		return errors.New("a run ID is required unless --list is set")
	}
	runID := args[0]
	replay := application.NewReplay(store)

	if opts.ticks {
		it, err := replay.NewEventIterator(ctx, runID)
		if err != nil {
			return err
		}
		if it.Len() == 0 {
			return fmt.Errorf("%w: %s", event.ErrRunNotFound, runID)
		}
		printTicks(a.stdout, it)
		return nil
	}

	history, err := replay.Reconstruct(ctx, runID)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	printHistory(a.stdout, history)
	return nil
}

func printHistory(w io.Writer, h *application.RunHistory) {
	fmt.Fprintf(w, "Run %s\n", h.RunID)
	if h.Scenario != "" {
		fmt.Fprintf(w, "  Scenario: %s\n", h.Scenario)
	}
	fmt.Fprintf(w, "  Grid: %dx%d\n", h.GridSize, h.GridSize)
	fmt.Fprintf(w, "  Ticks: %d\n", h.Ticks)
	fmt.Fprintf(w, "  Events: %d\n", h.Events)
	switch {
	case h.Error != "":
		fmt.Fprintf(w, "  Stopped: %s\n", h.Error)
	case !h.Finished:
		fmt.Fprintf(w, "  Unfinished\n")
	}

	for _, ag := range h.Agents {
		fmt.Fprintf(w, "\n%s", ag.Name)
		if ag.Spec.Kind != "" {
			fmt.Fprintf(w, " [%s]", ag.Spec)
		}
		fmt.Fprintf(w, ": %s\n", ag.State)
		for _, t := range ag.Transitions {
			line := fmt.Sprintf("  tick %d: %s -> %s", t.Tick, t.From, t.To)
			if t.Reason != "" {
				line += " (" + t.Reason + ")"
			}
			fmt.Fprintln(w, line)
		}
		if len(ag.Path) > 0 {
			cells := make([]string, 0, len(ag.Path))
			for _, s := range ag.Path {
				cells = append(cells, fmt.Sprintf("(%d,%d)", s.X, s.Y))
			}
			fmt.Fprintf(w, "  path: %s\n", strings.Join(cells, " "))
		}
	}
}

func printTicks(w io.Writer, it *application.EventIterator) {
	for batch := it.NextTick(); batch != nil; batch = it.NextTick() {
		for _, e := range batch {
			fmt.Fprintf(w, "%4d  %-22s %s\n", e.Sequence, e.Type, e.Payload)
		}
		fmt.Fprintln(w)
	}
}

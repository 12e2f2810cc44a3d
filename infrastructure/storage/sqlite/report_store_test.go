package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/sqlite"
)

var started = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestReportStore(t *testing.T) *sqlite.ReportStore {
	t.Helper()

	cfg := sqlite.DefaultConfig()
	cfg.Path = t.TempDir() + "/reports.db"

	store, err := sqlite.NewReportStore(cfg)
	if err != nil {
		t.Fatalf("NewReportStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newReport(id, scenario string, status report.Status, ticks int) *report.Report {
	return &report.Report{
		RunID:      id,
		Scenario:   scenario,
		Status:     status,
		GridSize:   6,
		Ticks:      ticks,
		StartedAt:  started.Add(time.Duration(ticks) * time.Minute),
		FinishedAt: started.Add(time.Duration(ticks)*time.Minute + 2*time.Second),
		Agents: []report.AgentOutcome{
			{Name: "r2", Kind: routine.KindSpiralScan, Outcome: routine.StateSuccess, X: 1, Y: 1},
		},
	}
}

func TestReportStore_SaveAndGet(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, newReport("run-1", "patrol", report.StatusCompleted, 36)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Scenario != "patrol" || got.Ticks != 36 || got.Status != report.StatusCompleted {
		t.Errorf("Get = %+v, want the saved report", got)
	}
	if len(got.Agents) != 1 || got.Agents[0].Kind != routine.KindSpiralScan {
		t.Errorf("Get agents = %+v, want one spiral_scan agent", got.Agents)
	}
	if !got.StartedAt.Equal(started.Add(36 * time.Minute)) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started.Add(36*time.Minute))
	}
}

func TestReportStore_SaveDuplicate(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	r := newReport("run-1", "patrol", report.StatusCompleted, 1)
	_ = store.Save(ctx, r)

	if err := store.Save(ctx, r); !errors.Is(err, report.ErrReportExists) {
		t.Errorf("Save duplicate error = %v, want ErrReportExists", err)
	}
}

func TestReportStore_Errors(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, &report.Report{Status: report.StatusCompleted}); !errors.Is(err, report.ErrInvalidRunID) {
		t.Errorf("Save without id error = %v, want ErrInvalidRunID", err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, report.ErrReportNotFound) {
		t.Errorf("Get missing error = %v, want ErrReportNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, report.ErrReportNotFound) {
		t.Errorf("Delete missing error = %v, want ErrReportNotFound", err)
	}
}

func TestReportStore_Delete(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, newReport("run-1", "patrol", report.StatusCompleted, 1))
	if err := store.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "run-1"); !errors.Is(err, report.ErrReportNotFound) {
		t.Errorf("Get after delete error = %v, want ErrReportNotFound", err)
	}
}

func TestReportStore_ListAndCount(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, newReport("run-a", "patrol", report.StatusCompleted, 3))
	_ = store.Save(ctx, newReport("run-b", "patrol", report.StatusExhausted, 9))
	_ = store.Save(ctx, newReport("run-c", "escort", report.StatusCompleted, 5))

	tests := []struct {
		name   string
		filter report.ListFilter
		want   []string
	}{
		{"all by start", report.ListFilter{}, []string{"run-a", "run-c", "run-b"}},
		{"by scenario", report.ListFilter{Scenario: "patrol"}, []string{"run-a", "run-b"}},
		{"by status", report.ListFilter{Status: []report.Status{report.StatusExhausted}}, []string{"run-b"}},
		{"ticks descending", report.ListFilter{OrderBy: report.OrderByTicks, Descending: true}, []string{"run-b", "run-c", "run-a"}},
		{"limit", report.ListFilter{Limit: 1}, []string{"run-a"}},
		{"offset only", report.ListFilter{Offset: 2}, []string{"run-b"}},
		{"from time", report.ListFilter{FromTime: started.Add(4 * time.Minute)}, []string{"run-c", "run-b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len(List) = %d, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.RunID != tt.want[i] {
					t.Errorf("List[%d] = %s, want %s", i, r.RunID, tt.want[i])
				}
			}
		})
	}

	count, err := store.Count(ctx, report.ListFilter{Status: []report.Status{report.StatusCompleted}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count = %d, want 2", count)
	}
}

func TestReportStore_Summary(t *testing.T) {
	store := newTestReportStore(t)
	ctx := context.Background()

	_ = store.Save(ctx, newReport("run-a", "patrol", report.StatusCompleted, 3))
	_ = store.Save(ctx, newReport("run-b", "patrol", report.StatusExhausted, 9))

	summary, err := store.Summary(ctx, report.ListFilter{})
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalRuns != 2 || summary.CompletedRuns != 1 || summary.ExhaustedRuns != 1 {
		t.Errorf("Summary counts = %+v", summary)
	}
	if summary.AverageTicks != 6 {
		t.Errorf("AverageTicks = %v, want 6", summary.AverageTicks)
	}
	if summary.AverageDuration != 2*time.Second {
		t.Errorf("AverageDuration = %v, want 2s", summary.AverageDuration)
	}

	empty, err := store.Summary(ctx, report.ListFilter{Scenario: "none"})
	if err != nil {
		t.Fatalf("Summary(empty) failed: %v", err)
	}
	if empty.TotalRuns != 0 {
		t.Errorf("Summary(empty).TotalRuns = %d, want 0", empty.TotalRuns)
	}
}

package report_test

import (
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/report"
	"github.com/felixgeelhaar/droid-go/domain/routine"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newReport(id, scenario string, status report.Status, ticks int, startOffset time.Duration) *report.Report {
	return &report.Report{
		RunID:      id,
		Scenario:   scenario,
		Status:     status,
		GridSize:   8,
		Ticks:      ticks,
		StartedAt:  epoch.Add(startOffset),
		FinishedAt: epoch.Add(startOffset + time.Duration(ticks)*time.Second),
	}
}

func TestReport_Duration(t *testing.T) {
	t.Parallel()

	r := newReport("a", "s", report.StatusCompleted, 5, 0)
	if got := r.Duration(); got != 5*time.Second {
		t.Errorf("Duration() = %v, want 5s", got)
	}

	r.FinishedAt = time.Time{}
	if got := r.Duration(); got != 0 {
		t.Errorf("Duration() unfinished = %v, want 0", got)
	}
}

func TestReport_Counts(t *testing.T) {
	t.Parallel()

	r := &report.Report{Agents: []report.AgentOutcome{
		{Name: "a", Outcome: routine.StateSuccess},
		{Name: "b", Outcome: routine.StateSuccess},
		{Name: "c", Outcome: routine.StateFailure},
		{Name: "d", Outcome: routine.StateRunning},
		{Name: "e", Outcome: routine.StateNone},
	}}

	s, f, run := r.Counts()
	if s != 2 || f != 1 || run != 1 {
		t.Errorf("Counts() = %d, %d, %d, want 2, 1, 1", s, f, run)
	}
}

func TestReport_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		report  *report.Report
		wantErr error
	}{
		{"valid", newReport("a", "s", report.StatusCompleted, 1, 0), nil},
		{"nil", nil, report.ErrInvalidRunID},
		{"missing id", newReport("", "s", report.StatusCompleted, 1, 0), report.ErrInvalidRunID},
		{"bad status", newReport("a", "s", "paused", 1, 0), report.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.report.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListFilter_Matches(t *testing.T) {
	t.Parallel()

	r := newReport("a", "patrol", report.StatusExhausted, 10, time.Hour)

	tests := []struct {
		name   string
		filter report.ListFilter
		want   bool
	}{
		{"empty", report.ListFilter{}, true},
		{"scenario match", report.ListFilter{Scenario: "patrol"}, true},
		{"scenario mismatch", report.ListFilter{Scenario: "escort"}, false},
		{"status match", report.ListFilter{Status: []report.Status{report.StatusCompleted, report.StatusExhausted}}, true},
		{"status mismatch", report.ListFilter{Status: []report.Status{report.StatusCompleted}}, false},
		{"from before", report.ListFilter{FromTime: epoch}, true},
		{"from after", report.ListFilter{FromTime: epoch.Add(2 * time.Hour)}, false},
		{"to after", report.ListFilter{ToTime: epoch.Add(2 * time.Hour)}, true},
		{"to before", report.ListFilter{ToTime: epoch}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.filter.Matches(r); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListFilter_Page(t *testing.T) {
	t.Parallel()

	all := []*report.Report{
		newReport("a", "s", report.StatusCompleted, 1, 0),
		newReport("b", "s", report.StatusCompleted, 1, 0),
		newReport("c", "s", report.StatusCompleted, 1, 0),
	}

	tests := []struct {
		name   string
		filter report.ListFilter
		want   []string
	}{
		{"no paging", report.ListFilter{}, []string{"a", "b", "c"}},
		{"limit", report.ListFilter{Limit: 2}, []string{"a", "b"}},
		{"offset", report.ListFilter{Offset: 1}, []string{"b", "c"}},
		{"offset and limit", report.ListFilter{Offset: 1, Limit: 1}, []string{"b"}},
		{"offset past end", report.ListFilter{Offset: 5}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.filter.Page(all)
			if len(got) != len(tt.want) {
				t.Fatalf("len(Page()) = %d, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.RunID != tt.want[i] {
					t.Errorf("Page()[%d] = %s, want %s", i, r.RunID, tt.want[i])
				}
			}
		})
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		orderBy    report.OrderBy
		descending bool
		want       []string
	}{
		{"start time", report.OrderByStartTime, false, []string{"b", "c", "a"}},
		{"default is start time", "", false, []string{"b", "c", "a"}},
		{"start time descending", report.OrderByStartTime, true, []string{"a", "c", "b"}},
		{"ticks", report.OrderByTicks, false, []string{"c", "a", "b"}},
		{"id descending", report.OrderByID, true, []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reports := []*report.Report{
				newReport("a", "s", report.StatusCompleted, 5, 3*time.Minute),
				newReport("b", "s", report.StatusCompleted, 9, time.Minute),
				newReport("c", "s", report.StatusCompleted, 2, 2*time.Minute),
			}
			report.Sort(reports, tt.orderBy, tt.descending)
			for i, r := range reports {
				if r.RunID != tt.want[i] {
					t.Errorf("Sort()[%d] = %s, want %s", i, r.RunID, tt.want[i])
				}
			}
		})
	}
}

func TestOrderBy_IsValid(t *testing.T) {
	t.Parallel()

	for _, o := range []report.OrderBy{"", report.OrderByStartTime, report.OrderByTicks, report.OrderByID} {
		if !o.IsValid() {
			t.Errorf("OrderBy(%q).IsValid() = false, want true", o)
		}
	}
	if report.OrderBy("goal").IsValid() {
		t.Error(`OrderBy("goal").IsValid() = true, want false`)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := report.Summarize([]*report.Report{
		newReport("a", "s", report.StatusCompleted, 4, 0),
		newReport("b", "s", report.StatusExhausted, 8, 0),
		newReport("c", "s", report.StatusCancelled, 0, 0),
	})

	if s.TotalRuns != 3 || s.CompletedRuns != 1 || s.ExhaustedRuns != 1 || s.CancelledRuns != 1 {
		t.Errorf("Summarize() counts = %+v", s)
	}
	if s.AverageTicks != 4 {
		t.Errorf("AverageTicks = %v, want 4", s.AverageTicks)
	}
	if s.AverageDuration != 4*time.Second {
		t.Errorf("AverageDuration = %v, want 4s", s.AverageDuration)
	}

	if empty := report.Summarize(nil); empty.TotalRuns != 0 || empty.AverageTicks != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero", empty)
	}
}

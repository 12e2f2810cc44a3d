package report

import (
	"context"
	"sort"
	"time"
)

// Store defines the interface for report persistence.
// Backends live under infrastructure/storage (memory, sqlite, redis, postgres).
type Store interface {
	// Save persists a new report.
	Save(ctx context.Context, r *Report) error

	// Get retrieves a report by run ID.
	Get(ctx context.Context, runID string) (*Report, error)

	// Delete removes a report by run ID.
	Delete(ctx context.Context, runID string) error

	// List returns reports matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Report, error)

	// Count returns the number of reports matching the filter.
	Count(ctx context.Context, filter ListFilter) (int64, error)
}

// ListFilter specifies criteria for listing reports.
type ListFilter struct {
	// Scenario filters by scenario name (empty means all).
	Scenario string

	// Status filters by run status (empty means all).
	Status []Status

	// FromTime filters runs started at or after this time.
	FromTime time.Time

	// ToTime filters runs started at or before this time.
	ToTime time.Time

	// Limit is the maximum number of reports to return (0 = no limit).
	Limit int

	// Offset is the number of reports to skip for pagination.
	Offset int

	// OrderBy specifies the sort order.
	OrderBy OrderBy

	// Descending reverses the sort order.
	Descending bool
}

// Matches reports whether r satisfies every criterion except paging.
func (f ListFilter) Matches(r *Report) bool {
	if f.Scenario != "" && r.Scenario != f.Scenario {
		return false
	}
	if len(f.Status) > 0 {
		found := false
		for _, s := range f.Status {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.FromTime.IsZero() && r.StartedAt.Before(f.FromTime) {
		return false
	}
	if !f.ToTime.IsZero() && r.StartedAt.After(f.ToTime) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already filtered and sorted slice.
func (f ListFilter) Page(reports []*Report) []*Report {
	if f.Offset > 0 {
		if f.Offset >= len(reports) {
			return []*Report{}
		}
		reports = reports[f.Offset:]
	}
	if f.Limit > 0 && len(reports) > f.Limit {
		reports = reports[:f.Limit]
	}
	return reports
}

// OrderBy specifies how to sort reports.
type OrderBy string

const (
	// OrderByStartTime sorts by run start time.
	OrderByStartTime OrderBy = "started_at"

	// OrderByTicks sorts by the number of ticks the run took.
	OrderByTicks OrderBy = "ticks"

	// OrderByID sorts by run ID.
	OrderByID OrderBy = "run_id"
)

// IsValid reports whether o is a known ordering. Empty means start time.
func (o OrderBy) IsValid() bool {
	switch o {
	case "", OrderByStartTime, OrderByTicks, OrderByID:
		return true
	}
	return false
}

// Sort orders reports in place.
func Sort(reports []*Report, orderBy OrderBy, descending bool) {
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if descending {
			a, b = b, a
		}
		switch orderBy {
		case OrderByTicks:
			return a.Ticks < b.Ticks
		case OrderByID:
			return a.RunID < b.RunID
		default:
			return a.StartedAt.Before(b.StartedAt)
		}
	})
}

// Summary provides aggregate statistics about stored runs.
type Summary struct {
	TotalRuns       int64
	CompletedRuns   int64
	ExhaustedRuns   int64
	CancelledRuns   int64
	AverageTicks    float64
	AverageDuration time.Duration
}

// Summarize aggregates the given reports.
func Summarize(reports []*Report) Summary {
	var s Summary
	var ticks int
	var total time.Duration
	for _, r := range reports {
		s.TotalRuns++
		ticks += r.Ticks
		total += r.Duration()
		switch r.Status {
		case StatusCompleted:
			s.CompletedRuns++
		case StatusExhausted:
			s.ExhaustedRuns++
		case StatusCancelled:
			s.CancelledRuns++
		}
	}
	if s.TotalRuns > 0 {
		s.AverageTicks = float64(ticks) / float64(s.TotalRuns)
		s.AverageDuration = total / time.Duration(s.TotalRuns)
	}
	return s
}

// SummaryProvider is an optional interface for stores that support summaries.
type SummaryProvider interface {
	// Summary returns aggregate statistics.
	Summary(ctx context.Context, filter ListFilter) (Summary, error)
}

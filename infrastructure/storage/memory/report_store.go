package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/droid-go/domain/report"
)

// ReportStore is an in-memory implementation of report.Store. Reports are
// kept encoded so callers never share mutable state with the store.
type ReportStore struct {
	reports map[string][]byte
	mu      sync.RWMutex
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string][]byte)}
}

// Save persists a new report.
func (s *ReportStore) Save(ctx context.Context, r *report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.RunID]; exists {
		return report.ErrReportExists
	}
	s.reports[r.RunID] = data
	return nil
}

// Get retrieves a report by run ID.
func (s *ReportStore) Get(ctx context.Context, runID string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, report.ErrInvalidRunID
	}

	s.mu.RLock()
	data, ok := s.reports[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, report.ErrReportNotFound
	}
	return decode(data)
}

// Delete removes a report by run ID.
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return report.ErrInvalidRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[runID]; !exists {
		return report.ErrReportNotFound
	}
	delete(s.reports, runID)
	return nil
}

// List returns reports matching the filter.
func (s *ReportStore) List(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	matched, err := s.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	report.Sort(matched, filter.OrderBy, filter.Descending)
	return filter.Page(matched), nil
}

// Count returns the number of reports matching the filter.
func (s *ReportStore) Count(ctx context.Context, filter report.ListFilter) (int64, error) {
	matched, err := s.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Summary returns aggregate statistics.
func (s *ReportStore) Summary(ctx context.Context, filter report.ListFilter) (report.Summary, error) {
	matched, err := s.matching(ctx, filter)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(matched), nil
}

func (s *ReportStore) matching(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*report.Report{}
	for _, data := range s.reports {
		r, err := decode(data)
		if err != nil {
			continue
		}
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result, nil
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

func decode(data []byte) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Ensure ReportStore implements report.Store and report.SummaryProvider
var (
	_ report.Store           = (*ReportStore)(nil)
	_ report.SummaryProvider = (*ReportStore)(nil)
)

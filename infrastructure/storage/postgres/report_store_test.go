package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/report"
)

func TestNewReportStore_Schema(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schema string
		want   string
	}{
		{"", "public.reports"},
		{"public", "public.reports"},
		{"sim", "sim.reports"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			s := NewReportStore(nil, tt.schema)
			if got := s.tableName(); got != tt.want {
				t.Errorf("tableName() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReportStore_BuildWhereClause(t *testing.T) {
	t.Parallel()

	s := NewReportStore(nil, "")
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   report.ListFilter
		wantSQL  string
		wantArgs int
	}{
		{"empty", report.ListFilter{}, "", 0},
		{"scenario", report.ListFilter{Scenario: "patrol"}, "WHERE scenario = $1", 1},
		{
			"status and time",
			report.ListFilter{Status: []report.Status{report.StatusCompleted, report.StatusExhausted}, FromTime: from},
			"WHERE status = ANY($1) AND started_at >= $2",
			2,
		},
		{
			"all",
			report.ListFilter{Scenario: "s", Status: []report.Status{report.StatusCancelled}, FromTime: from, ToTime: from.Add(time.Hour)},
			"WHERE scenario = $1 AND status = ANY($2) AND started_at >= $3 AND started_at <= $4",
			4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			where, args := s.buildWhereClause(tt.filter)
			if where != tt.wantSQL {
				t.Errorf("buildWhereClause() = %q, want %q", where, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("len(args) = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestReportStore_BuildListQuery(t *testing.T) {
	t.Parallel()

	s := NewReportStore(nil, "")

	query, args := s.buildListQuery(report.ListFilter{
		Scenario:   "patrol",
		OrderBy:    report.OrderByTicks,
		Descending: true,
		Limit:      10,
		Offset:     20,
	})

	for _, want := range []string{"FROM public.reports", "ORDER BY ticks DESC", "LIMIT $2", "OFFSET $3"} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
	if len(args) != 3 {
		t.Errorf("len(args) = %d, want 3", len(args))
	}

	query, _ = s.buildListQuery(report.ListFilter{})
	if !strings.Contains(query, "ORDER BY started_at ASC") {
		t.Errorf("default query %q should order by started_at", query)
	}
}

func TestReportStore_InvalidInput(t *testing.T) {
	t.Parallel()

	s := NewReportStore(nil, "")
	ctx := context.Background()

	if err := s.Save(ctx, &report.Report{}); !errors.Is(err, report.ErrInvalidRunID) {
		t.Errorf("Save() error = %v, want ErrInvalidRunID", err)
	}
	if err := s.Save(ctx, &report.Report{RunID: "r", Status: "bogus"}); !errors.Is(err, report.ErrInvalidStatus) {
		t.Errorf("Save() error = %v, want ErrInvalidStatus", err)
	}
	if _, err := s.Get(ctx, ""); !errors.Is(err, report.ErrInvalidRunID) {
		t.Errorf("Get() error = %v, want ErrInvalidRunID", err)
	}
	if err := s.Delete(ctx, ""); !errors.Is(err, report.ErrInvalidRunID) {
		t.Errorf("Delete() error = %v, want ErrInvalidRunID", err)
	}
}

func TestReportStore_WrapError(t *testing.T) {
	t.Parallel()

	s := NewReportStore(nil, "")

	if s.wrapError(nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
	if err := s.wrapError(context.DeadlineExceeded); errors.Is(err, report.ErrConnectionFailed) {
		t.Errorf("wrapError(deadline) = %v, should pass through", err)
	}
	if err := s.wrapError(errors.New("reset")); !errors.Is(err, report.ErrConnectionFailed) {
		t.Errorf("wrapError() = %v, want ErrConnectionFailed", err)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/droid-go/domain/report"
)

// ReportStore is a PostgreSQL-backed implementation of report.Store.
type ReportStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewReportStore creates a new PostgreSQL report store.
func NewReportStore(pool *pgxpool.Pool, schema string) *ReportStore {
	if schema == "" {
		schema = "public"
	}
	return &ReportStore{
		pool:   pool,
		schema: schema,
	}
}

// tableName returns the fully qualified table name.
func (s *ReportStore) tableName() string {
	return fmt.Sprintf("%s.reports", s.schema)
}

// Migrate creates the reports table if it doesn't exist.
func (s *ReportStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			run_id      TEXT PRIMARY KEY,
			scenario    TEXT NOT NULL,
			status      TEXT NOT NULL,
			grid_size   INTEGER NOT NULL,
			ticks       INTEGER NOT NULL,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			data        JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS reports_scenario_idx ON %[1]s (scenario);
		CREATE INDEX IF NOT EXISTS reports_started_at_idx ON %[1]s (started_at);
	`, s.tableName())

	_, err := s.pool.Exec(ctx, query)
	return s.wrapError(err)
}

// Save persists a new report.
func (s *ReportStore) Save(ctx context.Context, r *report.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var finished *time.Time
	if !r.FinishedAt.IsZero() {
		finished = &r.FinishedAt
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, scenario, status, grid_size, ticks, started_at, finished_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO NOTHING
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query,
		r.RunID,
		r.Scenario,
		string(r.Status),
		r.GridSize,
		r.Ticks,
		r.StartedAt,
		finished,
		data,
	)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return report.ErrReportExists
	}
	return nil
}

// Get retrieves a report by run ID.
func (s *ReportStore) Get(ctx context.Context, runID string) (*report.Report, error) {
	if runID == "" {
		return nil, report.ErrInvalidRunID
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE run_id = $1`, s.tableName())

	var data []byte
	if err := s.pool.QueryRow(ctx, query, runID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, s.wrapError(err)
	}

	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

// Delete removes a report by run ID.
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return report.ErrInvalidRunID
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, s.tableName())
	tag, err := s.pool.Exec(ctx, query, runID)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// List returns reports matching the filter.
func (s *ReportStore) List(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	query, args := s.buildListQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, s.wrapError(err)
		}
		var r report.Report
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		reports = append(reports, &r)
	}
	return reports, s.wrapError(rows.Err())
}

// Count returns the number of reports matching the filter.
func (s *ReportStore) Count(ctx context.Context, filter report.ListFilter) (int64, error) {
	where, args := s.buildWhereClause(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, s.tableName(), where)

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, s.wrapError(err)
	}
	return count, nil
}

// Summary returns aggregate statistics.
func (s *ReportStore) Summary(ctx context.Context, filter report.ListFilter) (report.Summary, error) {
	where, args := s.buildWhereClause(filter)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'exhausted'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(AVG(ticks), 0)::float8,
			COALESCE(AVG(EXTRACT(EPOCH FROM (finished_at - started_at)) * 1000000000) FILTER (WHERE finished_at IS NOT NULL), 0)::float8
		FROM %s
		%s
	`, s.tableName(), where)

	var summary report.Summary
	var avgNanos float64
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&summary.TotalRuns,
		&summary.CompletedRuns,
		&summary.ExhaustedRuns,
		&summary.CancelledRuns,
		&summary.AverageTicks,
		&avgNanos,
	)
	if err != nil {
		return report.Summary{}, s.wrapError(err)
	}
	summary.AverageDuration = time.Duration(avgNanos)
	return summary, nil
}

// buildListQuery constructs the SELECT query for listing reports.
func (s *ReportStore) buildListQuery(filter report.ListFilter) (string, []any) {
	where, args := s.buildWhereClause(filter)

	query := fmt.Sprintf(`SELECT data FROM %s %s`, s.tableName(), where)

	orderBy := "started_at"
	switch filter.OrderBy {
	case report.OrderByTicks:
		orderBy = "ticks"
	case report.OrderByID:
		orderBy = "run_id"
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", orderBy, direction)

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return query, args
}

// buildWhereClause constructs the WHERE clause from filter.
func (s *ReportStore) buildWhereClause(filter report.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Scenario != "" {
		args = append(args, filter.Scenario)
		conditions = append(conditions, fmt.Sprintf("scenario = $%d", len(args)))
	}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	if !filter.FromTime.IsZero() {
		args = append(args, filter.FromTime)
		conditions = append(conditions, fmt.Sprintf("started_at >= $%d", len(args)))
	}
	if !filter.ToTime.IsZero() {
		args = append(args, filter.ToTime)
		conditions = append(conditions, fmt.Sprintf("started_at <= $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// Close closes the connection pool.
func (s *ReportStore) Close() error {
	s.pool.Close()
	return nil
}

// wrapError wraps database errors with domain errors. Context errors pass
// through unchanged so callers can tell cancellation from outages.
func (s *ReportStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(report.ErrConnectionFailed, err)
}

// Ensure ReportStore implements report.Store and report.SummaryProvider
var (
	_ report.Store           = (*ReportStore)(nil)
	_ report.SummaryProvider = (*ReportStore)(nil)
)

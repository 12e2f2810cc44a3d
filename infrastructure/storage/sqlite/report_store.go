package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/droid-go/domain/report"
)

// ReportStore is a SQLite-backed implementation of report.Store.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore opens a SQLite report store with the given configuration.
func NewReportStore(cfg Config, opts ...Option) (*ReportStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &ReportStore{db: db}
	if cfg.Migrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewReportStoreFromDB creates a report store from an existing connection.
func NewReportStoreFromDB(db *sql.DB) (*ReportStore, error) {
	s := &ReportStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates the reports table if it doesn't exist.
func (s *ReportStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			run_id TEXT PRIMARY KEY,
			scenario TEXT NOT NULL,
			status TEXT NOT NULL,
			grid_size INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_scenario ON reports(scenario);
		CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
		CREATE INDEX IF NOT EXISTS idx_reports_started_at ON reports(started_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
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

	var finished sql.NullInt64
	if !r.FinishedAt.IsZero() {
		finished = sql.NullInt64{Int64: r.FinishedAt.UnixNano(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, scenario, status, grid_size, ticks, started_at, finished_at, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Scenario, string(r.Status), r.GridSize, r.Ticks,
		r.StartedAt.UnixNano(), finished, data,
	)
	if isUniqueViolation(err) {
		return report.ErrReportExists
	}
	return err
}

// Get retrieves a report by run ID.
func (s *ReportStore) Get(ctx context.Context, runID string) (*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, report.ErrInvalidRunID
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM reports WHERE run_id = ?", runID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a report by run ID.
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return report.ErrInvalidRunID
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE run_id = ?", runID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

// List returns reports matching the filter.
func (s *ReportStore) List(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, args := buildListQuery(filter, false)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reports := []*report.Report{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r report.Report
		if err := json.Unmarshal(data, &r); err != nil {
			continue // Skip malformed entries
		}
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}

// Count returns the number of reports matching the filter.
func (s *ReportStore) Count(ctx context.Context, filter report.ListFilter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	query, args := buildListQuery(filter, true)
	var count int64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Summary returns aggregate statistics.
func (s *ReportStore) Summary(ctx context.Context, filter report.ListFilter) (report.Summary, error) {
	if err := ctx.Err(); err != nil {
		return report.Summary{}, err
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'exhausted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(ticks), 0),
			COALESCE(AVG(CASE WHEN finished_at IS NOT NULL THEN finished_at - started_at ELSE 0 END), 0)
		FROM reports`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}

	var summary report.Summary
	var avgNanos float64
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalRuns,
		&summary.CompletedRuns,
		&summary.ExhaustedRuns,
		&summary.CancelledRuns,
		&summary.AverageTicks,
		&avgNanos,
	)
	if err != nil {
		return report.Summary{}, err
	}
	summary.AverageDuration = time.Duration(avgNanos)
	return summary, nil
}

// buildListQuery builds the SQL query for listing or counting reports.
func buildListQuery(filter report.ListFilter, countOnly bool) (string, []any) {
	query := "SELECT data FROM reports"
	if countOnly {
		query = "SELECT COUNT(*) FROM reports"
	}

	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	if countOnly {
		return query, args
	}

	orderBy := "started_at"
	switch filter.OrderBy {
	case report.OrderByTicks:
		orderBy = "ticks"
	case report.OrderByID:
		orderBy = "run_id"
	}
	query += " ORDER BY " + orderBy
	if filter.Descending {
		query += " DESC"
	}

	switch {
	case filter.Limit > 0:
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	case filter.Offset > 0:
		// SQLite requires a LIMIT before OFFSET.
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	return query, args
}

// buildWhereClause builds the WHERE clause for filtering.
func buildWhereClause(filter report.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Scenario != "" {
		conditions = append(conditions, "scenario = ?")
		args = append(args, filter.Scenario)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if !filter.FromTime.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.FromTime.UnixNano())
	}
	if !filter.ToTime.IsZero() {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, filter.ToTime.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

// Close closes the database connection.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// Ensure ReportStore implements report.Store and report.SummaryProvider
var (
	_ report.Store           = (*ReportStore)(nil)
	_ report.SummaryProvider = (*ReportStore)(nil)
)

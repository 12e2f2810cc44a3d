package redis

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/droid-go/domain/report"
)

// ReportStore is a Redis-backed implementation of report.Store.
//
// Each report is a JSON string under <prefix>report:<runID>. The sorted set
// <prefix>reports indexes run IDs by start time; filtering happens client side.
type ReportStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewReportStore connects to Redis and verifies the connection.
func NewReportStore(cfg Config, opts ...ConfigOption) (*ReportStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(cfg.options())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(report.ErrConnectionFailed, err)
	}

	return NewReportStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewReportStoreFromClient creates a report store from an existing client.
func NewReportStoreFromClient(client *redis.Client, keyPrefix string) *ReportStore {
	return &ReportStore{client: client, keyPrefix: keyPrefix}
}

func (s *ReportStore) reportKey(runID string) string {
	return s.keyPrefix + "report:" + runID
}

func (s *ReportStore) indexKey() string {
	return s.keyPrefix + "reports"
}

// Save persists a new report.
func (s *ReportStore) Save(ctx context.Context, r *report.Report) error {
	if err := r.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.reportKey(r.RunID), data, 0).Result()
	if err != nil {
		return wrapError(err)
	}
	if !ok {
		return report.ErrReportExists
	}

	member := redis.Z{Score: float64(r.StartedAt.UnixNano()), Member: r.RunID}
	return wrapError(s.client.ZAdd(ctx, s.indexKey(), member).Err())
}

// Get retrieves a report by run ID.
func (s *ReportStore) Get(ctx context.Context, runID string) (*report.Report, error) {
	if runID == "" {
		return nil, report.ErrInvalidRunID
	}

	data, err := s.client.Get(ctx, s.reportKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, report.ErrReportNotFound
	}
	if err != nil {
		return nil, wrapError(err)
	}
	return decode(data)
}

// Delete removes a report by run ID.
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return report.ErrInvalidRunID
	}

	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.reportKey(runID))
		pipe.ZRem(ctx, s.indexKey(), runID)
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	if del.Val() == 0 {
		return report.ErrReportNotFound
	}
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

// matching loads the reports in the index's start time window and applies
// the remaining filter criteria.
func (s *ReportStore) matching(ctx context.Context, filter report.ListFilter) ([]*report.Report, error) {
	ids, err := s.client.ZRangeByScore(ctx, s.indexKey(), scoreRange(filter)).Result()
	if err != nil {
		return nil, wrapError(err)
	}
	if len(ids) == 0 {
		return []*report.Report{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.reportKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapError(err)
	}

	result := make([]*report.Report, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // deleted between the two calls
		}
		r, err := decode([]byte(raw))
		if err != nil {
			continue
		}
		if filter.Matches(r) {
			result = append(result, r)
		}
	}
	return result, nil
}

// scoreRange narrows the index scan to the filter's time window.
func scoreRange(filter report.ListFilter) *redis.ZRangeBy {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !filter.FromTime.IsZero() {
		rng.Min = formatScore(filter.FromTime.UnixNano())
	}
	if !filter.ToTime.IsZero() {
		rng.Max = formatScore(filter.ToTime.UnixNano())
	}
	return rng
}

// Ping checks the connection.
func (s *ReportStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *ReportStore) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*report.Report, error) {
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// wrapError tags network failures with the domain connection error.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(report.ErrConnectionFailed, err)
	}
	return err
}

// Ensure ReportStore implements report.Store
var _ report.Store = (*ReportStore)(nil)

package cli

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
	"github.com/felixgeelhaar/droid-go/domain/event"
	"github.com/felixgeelhaar/droid-go/domain/report"
	badgerstore "github.com/felixgeelhaar/droid-go/infrastructure/storage/badger"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/postgres"
	redisstore "github.com/felixgeelhaar/droid-go/infrastructure/storage/redis"
	"github.com/felixgeelhaar/droid-go/infrastructure/storage/sqlite"
)

// backends holds the stores a command works against.
type backends struct {
	reports report.Store
	events  event.Store
	closers []func() error
}

// openBackends opens the report store and event store named by cfg. The
// two are opened concurrently; on failure whichever did open is closed.
func openBackends(ctx context.Context, cfg domainconfig.StorageConfig) (*backends, error) {
	var (
		reports      report.Store
		events       event.Store
		closeReports func() error
		closeEvents  func() error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reports, closeReports, err = openReportStore(gctx, cfg)
		return err
	})
	g.Go(func() error {
		var err error
		events, closeEvents, err = openEventStore(cfg.EventsDir)
		return err
	})
	err := g.Wait()

	b := &backends{reports: reports, events: events}
	if closeReports != nil {
		b.closers = append(b.closers, closeReports)
	}
	if closeEvents != nil {
		b.closers = append(b.closers, closeEvents)
	}
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// Close releases every opened store.
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func noClose() error { return nil }

// openReportStore opens the report backend named by cfg.Backend.
func openReportStore(ctx context.Context, cfg domainconfig.StorageConfig) (report.Store, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewReportStore(), noClose, nil

	case "sqlite":
		store, err := sqlite.NewReportStore(sqlite.DefaultConfig(), sqlite.WithDSN(cfg.DSN))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite report store: %w", err)
		}
		return store, store.Close, nil

	case "redis":
		store, err := redisstore.NewReportStore(redisstore.DefaultConfig(), redisstore.FromStorage(cfg)...)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis report store: %w", err)
		}
		return store, store.Close, nil

	case "postgres":
		pgCfg := postgres.DefaultConfig()
		pool, err := postgres.NewPool(ctx, pgCfg, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres report store: %w", err)
		}
		store := postgres.NewReportStore(pool, pgCfg.Schema)
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("migrate postgres report store: %w", err)
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// openEventStore opens a badger event store in dir, or an in-memory one
// when dir is empty.
func openEventStore(dir string) (event.Store, func() error, error) {
	if dir == "" {
		return memory.NewEventStore(), noClose, nil
	}
	store, err := badgerstore.NewEventStore(badgerstore.DefaultConfig(), badgerstore.WithDir(dir))
	if err != nil {
		return nil, nil, fmt.Errorf("open event store: %w", err)
	}
	return store, store.Close, nil
}

// Package sqlite is the relational store adapter. It implements the store
// ports on top of modernc.org/sqlite, with every call guarded by a circuit
// breaker and retries, and writes serialised through a bulkhead.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("sqlite")

// Store implements port.FinanceStore, port.UserStore,
// port.GamificationStore and the chat message store.
type Store struct {
	db      *sql.DB
	guard   *resilience.Guard
	writes  *resilience.Bulkhead
	metrics *observability.Metrics
	logger  *zap.Logger
}

// Open creates the database directory, opens the file, applies migrations
// and verifies the connection.
func Open(ctx context.Context, dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// New wraps an open database.
func New(db *sql.DB, guard *resilience.Guard, writes *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		guard:   guard,
		writes:  writes,
		metrics: metrics,
		logger:  logger,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "SQLite.Ping")
	defer span.End()

	return s.read(ctx, "ping", func() error {
		return s.db.PingContext(ctx)
	})
}

// read runs a query through the breaker with retries.
func (s *Store) read(ctx context.Context, op string, fn func() error) error {
	return s.wrap(op, s.guard.Do(ctx, fn))
}

// write is read plus the write bulkhead; SQLite allows one writer at a time.
func (s *Store) write(ctx context.Context, op string, fn func() error) error {
	if err := s.writes.Acquire(ctx); err != nil {
		return err
	}
	defer s.writes.Release()
	return s.wrap(op, s.guard.Do(ctx, fn))
}

// inTx runs fn inside a database transaction, committing on success.
func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return s.write(ctx, op, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

// wrap leaves domain errors untouched and tags the rest as store errors.
func (s *Store) wrap(op string, err error) error {
	if err == nil || resilience.IsDomainError(err) {
		return err
	}
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.metrics.IncrStoreError(op)
	s.logger.Error("sqlite: operation failed", zap.String("op", op), zap.Error(err))
	return &domain.ErrStore{Op: op, Err: err}
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/markmdev/networking-copilot/internal/config"
	"github.com/markmdev/networking-copilot/internal/model"
)

// DefaultListLimit is used when ListRecords gets a non-positive limit.
const DefaultListLimit = 50

// ErrNotFound is returned by GetRecord for unknown ids.
var ErrNotFound = errors.New("store: record not found")

// Store persists enrichment records and caches name lookups. Records are
// insert-only; ids are generated on insert.
type Store interface {
	// Records
	PutRecord(ctx context.Context, rec *model.Record) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, limit int) ([]model.Record, error)

	// Lookup cache. A miss returns nil, nil.
	GetCachedLookup(ctx context.Context, key string) (*model.EnrichmentResult, error)
	SetCachedLookup(ctx context.Context, key string, res *model.EnrichmentResult, ttl time.Duration) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver and runs its migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "redis":
		s, err = NewRedis(RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// prepare assigns an id and creation time to a new record.
func prepare(rec *model.Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

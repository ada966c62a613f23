package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/markmdev/networking-copilot/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Timestamps are unix nanoseconds so ordering and expiry compare as integers.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS people (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL DEFAULT '',
	record     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS lookup_cache (
	key        TEXT PRIMARY KEY,
	result     TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_people_created_at ON people(created_at);
CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) PutRecord(ctx context.Context, rec *model.Record) error {
	prepare(rec)
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO people (id, name, url, record, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Person.Name, rec.Person.URL, string(data), rec.CreatedAt.UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: insert record %s", rec.ID)
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM people WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return decodeRecord([]byte(data))
}

func (s *SQLiteStore) ListRecords(ctx context.Context, limit int) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM people ORDER BY created_at DESC, id DESC LIMIT ?`,
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) GetCachedLookup(ctx context.Context, key string) (*model.EnrichmentResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT result FROM lookup_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().UnixNano(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached lookup")
	}
	return decodeResult([]byte(data))
}

func (s *SQLiteStore) SetCachedLookup(ctx context.Context, key string, res *model.EnrichmentResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lookup")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lookup_cache (key, result, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET result = excluded.result, expires_at = excluded.expires_at`,
		key, string(data), time.Now().Add(ttl).UnixNano(),
	)
	return eris.Wrap(err, "sqlite: set cached lookup")
}

func decodeRecord(data []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &rec, nil
}

func decodeResult(data []byte) (*model.EnrichmentResult, error) {
	var res model.EnrichmentResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal lookup")
	}
	return &res, nil
}

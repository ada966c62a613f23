package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_PutRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := sampleRecord("tony")

	mock.ExpectExec(`INSERT INTO people \(id, name, url, record, created_at\)`).
		WithArgs(pgxmock.AnyArg(), "tony", "https://www.linkedin.com/in/tony", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.PutRecord(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	data, err := json.Marshal(sampleRecord("tony"))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT record FROM people WHERE id = \$1`).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(data))

	got, err := s.GetRecord(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "tony", got.Person.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM people WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRecord(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a, _ := json.Marshal(sampleRecord("a"))
	b, _ := json.Marshal(sampleRecord("b"))

	mock.ExpectQuery(`SELECT record FROM people ORDER BY created_at DESC`).
		WithArgs(DefaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).AddRow(b).AddRow(a))

	got, err := s.ListRecords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Person.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRecords_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM people`).
		WithArgs(5).
		WillReturnError(errors.New("connection refused"))

	_, err := s.ListRecords(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCachedLookup_Miss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT result FROM lookup_cache`).
		WithArgs("lookup:abc").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetCachedLookup(context.Background(), "lookup:abc")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetCachedLookup_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("lookup:abc", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	res := sampleRecord("tony").EnrichmentResult
	require.NoError(t, s.SetCachedLookup(context.Background(), "lookup:abc", &res, 24*time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS people`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

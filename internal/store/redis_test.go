package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_KeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	first, second := sampleRecord("a"), sampleRecord("b")
	require.NoError(t, s.PutRecord(ctx, first))
	require.NoError(t, s.PutRecord(ctx, second))

	assert.True(t, mr.Exists("people:data:"+first.ID))
	ids, err := mr.List("people:index")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, ids)
}

func TestRedis_LookupCacheExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	res := sampleRecord("tony").EnrichmentResult
	require.NoError(t, s.SetCachedLookup(ctx, "lookup:k", &res, 24*time.Hour))
	assert.Equal(t, 24*time.Hour, mr.TTL("lookup:k"))

	mr.FastForward(25 * time.Hour)
	got, err := s.GetCachedLookup(ctx, "lookup:k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedis_ListSkipsMissingData(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedis(RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	rec := sampleRecord("kept")
	require.NoError(t, s.PutRecord(ctx, rec))
	mr.Lpush("people:index", "ghost")

	got, err := s.ListRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
}

func TestRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(RedisOptions{Addr: addr})
	assert.Error(t, err)
}

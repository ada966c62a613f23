package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/markmdev/networking-copilot/internal/extract"
	"github.com/markmdev/networking-copilot/internal/model"
	"github.com/markmdev/networking-copilot/internal/search"
)

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, filename string, data []byte, contentType string) (*extract.Result, error) {
	args := m.Called(ctx, filename, data, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extract.Result), args.Error(1)
}

// --- Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(ctx context.Context, q model.SearchQuery) (*search.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Result), args.Error(1)
}

// --- Selector Mock ---

type mockSelector struct {
	mock.Mock
}

func (m *mockSelector) Select(ctx context.Context, candidates []model.CandidateSummary, q model.SearchQuery) (*model.SelectionResult, error) {
	args := m.Called(ctx, candidates, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SelectionResult), args.Error(1)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (*model.SnapshotResult, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SnapshotResult), args.Error(1)
}

// --- Enricher Mock ---

type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Run(ctx context.Context, profile json.RawMessage) (*model.CrewOutputs, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CrewOutputs), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PutRecord(ctx context.Context, rec *model.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Record), args.Error(1)
}

func (m *mockStore) ListRecords(ctx context.Context, limit int) ([]model.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Record), args.Error(1)
}

func (m *mockStore) GetCachedLookup(ctx context.Context, key string) (*model.EnrichmentResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnrichmentResult), args.Error(1)
}

func (m *mockStore) SetCachedLookup(ctx context.Context, key string, res *model.EnrichmentResult, ttl time.Duration) error {
	args := m.Called(ctx, key, res, ttl)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

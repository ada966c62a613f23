// Package mocks provides test doubles for the brightdata client.
package mocks

import (
	"context"
	"encoding/json"

	brightdata "github.com/markmdev/networking-copilot/pkg/brightdata"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Trigger provides a mock function with given fields: ctx, datasetID, inputs
func (_m *MockClient) Trigger(ctx context.Context, datasetID string, inputs []brightdata.Input) (string, error) {
	ret := _m.Called(ctx, datasetID, inputs)

	if len(ret) == 0 {
		panic("no return value specified for Trigger")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, []brightdata.Input) (string, error)); ok {
		return rf(ctx, datasetID, inputs)
	}
	r0 = ret.Get(0).(string)
	r1 = ret.Error(1)

	return r0, r1
}

// Progress provides a mock function with given fields: ctx, snapshotID
func (_m *MockClient) Progress(ctx context.Context, snapshotID string) (*brightdata.ProgressResponse, error) {
	ret := _m.Called(ctx, snapshotID)

	if len(ret) == 0 {
		panic("no return value specified for Progress")
	}

	var r0 *brightdata.ProgressResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*brightdata.ProgressResponse, error)); ok {
		return rf(ctx, snapshotID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*brightdata.ProgressResponse)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// Download provides a mock function with given fields: ctx, snapshotID
func (_m *MockClient) Download(ctx context.Context, snapshotID string) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, snapshotID)

	if len(ret) == 0 {
		panic("no return value specified for Download")
	}

	var r0 []json.RawMessage
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]json.RawMessage, error)); ok {
		return rf(ctx, snapshotID)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]json.RawMessage)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

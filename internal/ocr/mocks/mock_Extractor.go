// Package mocks provides test doubles for the ocr extractors.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"
)

// MockExtractor is a mock type for the Extractor interface.
type MockExtractor struct {
	mock.Mock
}

// ExtractImage provides a mock function with given fields: ctx, data, contentType
func (_m *MockExtractor) ExtractImage(ctx context.Context, data []byte, contentType string) (string, error) {
	ret := _m.Called(ctx, data, contentType)

	if len(ret) == 0 {
		panic("no return value specified for ExtractImage")
	}

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []byte, string) (string, error)); ok {
		return rf(ctx, data, contentType)
	}
	r0 = ret.Get(0).(string)
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockExtractor creates a new instance of MockExtractor. It also registers
// a testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockExtractor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockExtractor {
	m := &MockExtractor{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock implementation of TextGenerator
type MockGenerator struct {
	mock.Mock
	key string
}

func newMockGenerator(key string) *MockGenerator {
	return &MockGenerator{key: key}
}

func (m *MockGenerator) Name() string    { return "mock" }
func (m *MockGenerator) KeyName() string { return m.key }

func (m *MockGenerator) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	args := m.Called(ctx, apiKey, prompt)
	return args.String(0), args.Error(1)
}

// MockFlightSearcher is a mock implementation of FlightSearcher
type MockFlightSearcher struct {
	mock.Mock
}

func (m *MockFlightSearcher) Search(ctx context.Context, q FlightQuery, apiKey string) ([]Flight, error) {
	args := m.Called(ctx, q, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Flight), args.Error(1)
}

package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/seatmap"
)

// MockStore is a mock implementation of schedule.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FlightsDepartingBetween(ctx context.Context, from, to time.Time) ([]schedule.FlightInstance, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schedule.FlightInstance), args.Error(1)
}

func (m *MockStore) Flight(ctx context.Context, number string) (*schedule.FlightInstance, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedule.FlightInstance), args.Error(1)
}

func (m *MockStore) AircraftModel(ctx context.Context, name string) (*seatmap.Configuration, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seatmap.Configuration), args.Error(1)
}

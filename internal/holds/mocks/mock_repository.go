package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sabscarpenter/skytravel/internal/holds"
)

// MockRepository is a mock implementation of holds.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Reserve(ctx context.Context, flightNumber, travelerID string, hs []holds.Hold, now time.Time) ([]string, error) {
	args := m.Called(ctx, flightNumber, travelerID, hs, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) OccupiedSeats(ctx context.Context, flightNumber, travelerID string, now time.Time) ([]string, error) {
	args := m.Called(ctx, flightNumber, travelerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) IsLiveHoldOwnedBy(ctx context.Context, flightNumber, seatCode, travelerID string, now time.Time) (bool, error) {
	args := m.Called(ctx, flightNumber, seatCode, travelerID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) LiveHolds(ctx context.Context, travelerID string, now time.Time) ([]holds.Hold, error) {
	args := m.Called(ctx, travelerID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]holds.Hold), args.Error(1)
}

func (m *MockRepository) Finalize(ctx context.Context, travelerID string, seats []holds.FinalizeSeat, now time.Time) error {
	args := m.Called(ctx, travelerID, seats, now)
	return args.Error(0)
}

func (m *MockRepository) PurgeExpired(ctx context.Context, now time.Time) ([]holds.ReleasedSeat, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]holds.ReleasedSeat), args.Error(1)
}

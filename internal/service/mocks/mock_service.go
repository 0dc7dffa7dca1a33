package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sabscarpenter/skytravel/internal/models"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) SearchOneWay(ctx context.Context, origin, destination string, departure time.Time) ([]models.ItineraryView, error) {
	args := m.Called(ctx, origin, destination, departure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ItineraryView), args.Error(1)
}

func (m *MockBookingService) SearchRoundTrip(ctx context.Context, origin, destination string, departure, inbound time.Time) (*models.RoundTripResponse, error) {
	args := m.Called(ctx, origin, destination, departure, inbound)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RoundTripResponse), args.Error(1)
}

func (m *MockBookingService) GetAircraftConfiguration(ctx context.Context, model string) (*models.AircraftConfiguration, error) {
	args := m.Called(ctx, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AircraftConfiguration), args.Error(1)
}

func (m *MockBookingService) GetSeatMap(ctx context.Context, flightNumber string, legs int, travelerID string) (*models.SeatMapResponse, error) {
	args := m.Called(ctx, flightNumber, legs, travelerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatMapResponse), args.Error(1)
}

func (m *MockBookingService) GetOccupiedSeats(ctx context.Context, flightNumber, travelerID string) ([]string, error) {
	args := m.Called(ctx, flightNumber, travelerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingService) ReserveSeats(ctx context.Context, travelerID string, req *models.ReserveSeatsRequest) (*models.ReserveSeatsResponse, error) {
	args := m.Called(ctx, travelerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReserveSeatsResponse), args.Error(1)
}

func (m *MockBookingService) FinalizeTickets(ctx context.Context, travelerID string, tickets []models.FinalizeTicket) error {
	args := m.Called(ctx, travelerID, tickets)
	return args.Error(0)
}

func (m *MockBookingService) StartCheckout(ctx context.Context, travelerID string, req *models.CheckoutRequest) (*models.CheckoutStarted, error) {
	args := m.Called(ctx, travelerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutStarted), args.Error(1)
}

func (m *MockBookingService) GetCheckout(ctx context.Context, travelerID, checkoutID string) (*models.CheckoutState, error) {
	args := m.Called(ctx, travelerID, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutState), args.Error(1)
}

func (m *MockBookingService) SubmitPayment(ctx context.Context, travelerID, checkoutID, paymentCode string) error {
	args := m.Called(ctx, travelerID, checkoutID, paymentCode)
	return args.Error(0)
}

func (m *MockBookingService) CancelCheckout(ctx context.Context, travelerID, checkoutID string) error {
	args := m.Called(ctx, travelerID, checkoutID)
	return args.Error(0)
}

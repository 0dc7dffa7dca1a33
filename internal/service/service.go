package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/sabscarpenter/skytravel/internal/holds"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/search"
	"github.com/sabscarpenter/skytravel/internal/workflows"
)

// BookingService defines the booking service interface
type BookingService interface {
	SearchOneWay(ctx context.Context, origin, destination string, departure time.Time) ([]models.ItineraryView, error)
	SearchRoundTrip(ctx context.Context, origin, destination string, departure, inbound time.Time) (*models.RoundTripResponse, error)
	GetAircraftConfiguration(ctx context.Context, model string) (*models.AircraftConfiguration, error)
	GetSeatMap(ctx context.Context, flightNumber string, legs int, travelerID string) (*models.SeatMapResponse, error)
	GetOccupiedSeats(ctx context.Context, flightNumber, travelerID string) ([]string, error)
	ReserveSeats(ctx context.Context, travelerID string, req *models.ReserveSeatsRequest) (*models.ReserveSeatsResponse, error)
	FinalizeTickets(ctx context.Context, travelerID string, tickets []models.FinalizeTicket) error
	StartCheckout(ctx context.Context, travelerID string, req *models.CheckoutRequest) (*models.CheckoutStarted, error)
	GetCheckout(ctx context.Context, travelerID, checkoutID string) (*models.CheckoutState, error)
	SubmitPayment(ctx context.Context, travelerID, checkoutID, paymentCode string) error
	CancelCheckout(ctx context.Context, travelerID, checkoutID string) error
}

// bookingServiceImpl implements BookingService
type bookingServiceImpl struct {
	engine         *search.Engine
	holds          *holds.Manager
	store          schedule.Store
	temporalClient client.Client
	taskQueue      string
	logger         logger.Logger
}

// NewBookingService creates a new BookingService. temporalClient may be nil,
// in which case the checkout workflow endpoints report an error.
func NewBookingService(engine *search.Engine, manager *holds.Manager, store schedule.Store, temporalClient client.Client, taskQueue string, log logger.Logger) BookingService {
	return &bookingServiceImpl{
		engine:         engine,
		holds:          manager,
		store:          store,
		temporalClient: temporalClient,
		taskQueue:      taskQueue,
		logger:         log,
	}
}

func (s *bookingServiceImpl) SearchOneWay(ctx context.Context, origin, destination string, departure time.Time) ([]models.ItineraryView, error) {
	its, err := s.engine.Search(ctx, search.Query{
		Origin:             origin,
		Destination:        destination,
		DepartureNotBefore: departure,
	}, search.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return search.ToViews(its), nil
}

func (s *bookingServiceImpl) SearchRoundTrip(ctx context.Context, origin, destination string, departure, inbound time.Time) (*models.RoundTripResponse, error) {
	rt, err := s.engine.RoundTrip(ctx, origin, destination, departure, inbound)
	if err != nil {
		return nil, err
	}
	return &models.RoundTripResponse{
		Outbound: search.ToViews(rt.Outbound),
		Return:   search.ToViews(rt.Return),
	}, nil
}

func (s *bookingServiceImpl) GetAircraftConfiguration(ctx context.Context, model string) (*models.AircraftConfiguration, error) {
	cfg, err := s.store.AircraftModel(ctx, model)
	if err != nil {
		return nil, err
	}
	return &models.AircraftConfiguration{
		Model:         cfg.Model,
		TotalSeats:    cfg.Capacity(),
		EconomySeats:  cfg.Economy,
		BusinessSeats: cfg.Business,
		FirstSeats:    cfg.First,
		Layout:        cfg.Layout,
	}, nil
}

func (s *bookingServiceImpl) GetSeatMap(ctx context.Context, flightNumber string, legs int, travelerID string) (*models.SeatMapResponse, error) {
	return s.holds.SeatMap(ctx, flightNumber, legs, travelerID)
}

func (s *bookingServiceImpl) GetOccupiedSeats(ctx context.Context, flightNumber, travelerID string) ([]string, error) {
	return s.holds.OccupiedSeats(ctx, flightNumber, travelerID)
}

func (s *bookingServiceImpl) ReserveSeats(ctx context.Context, travelerID string, req *models.ReserveSeatsRequest) (*models.ReserveSeatsResponse, error) {
	flightNumber := strings.TrimSpace(req.FlightNumber)
	if flightNumber == "" && len(req.Tickets) > 0 {
		flightNumber = strings.TrimSpace(req.Tickets[0].FlightNumber)
	}

	seats := make([]holds.SeatRequest, len(req.Tickets))
	for i, t := range req.Tickets {
		if t.FlightNumber != "" && t.FlightNumber != flightNumber {
			return nil, &holds.ValidationError{Field: "seat", Reason: fmt.Sprintf("seat %s belongs to flight %s", t.SeatCode, t.FlightNumber)}
		}
		seats[i] = holds.SeatRequest{
			SeatCode:  t.SeatCode,
			FareClass: t.Class,
			FirstName: t.FirstName,
			LastName:  t.LastName,
			ExtraBags: t.ExtraBags,
		}
	}

	res, err := s.holds.ReserveSeats(ctx, holds.ReserveRequest{
		FlightNumber: flightNumber,
		TravelerID:   travelerID,
		Legs:         req.Legs,
		Seats:        seats,
	})
	if err != nil {
		return nil, err
	}
	return &models.ReserveSeatsResponse{Success: true, ExpiresAt: res.ExpiresAt}, nil
}

func (s *bookingServiceImpl) FinalizeTickets(ctx context.Context, travelerID string, tickets []models.FinalizeTicket) error {
	return s.holds.Finalize(ctx, travelerID, holds.FinalizeSeats(tickets))
}

func (s *bookingServiceImpl) StartCheckout(ctx context.Context, travelerID string, req *models.CheckoutRequest) (*models.CheckoutStarted, error) {
	if s.temporalClient == nil {
		return nil, ErrCheckoutUnavailable
	}
	if len(req.Tickets) == 0 {
		return nil, &holds.ValidationError{Field: "seats", Reason: "at least one seat is required"}
	}

	checkoutID := uuid.New().String()
	input := models.CheckoutWorkflowInput{
		CheckoutID:  checkoutID,
		TravelerID:  travelerID,
		Tickets:     req.Tickets,
		PaymentCode: req.PaymentCode,
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        workflows.WorkflowID(checkoutID),
		TaskQueue: s.taskQueue,
	}

	run, err := s.temporalClient.ExecuteWorkflow(ctx, workflowOptions, workflows.CheckoutWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	s.logger.Info("Checkout started", "checkoutId", checkoutID, "workflowId", run.GetID(), "traveler", travelerID)
	return &models.CheckoutStarted{CheckoutID: checkoutID, WorkflowID: run.GetID()}, nil
}

// GetCheckout returns the state of a checkout owned by travelerID.
func (s *bookingServiceImpl) GetCheckout(ctx context.Context, travelerID, checkoutID string) (*models.CheckoutState, error) {
	if s.temporalClient == nil {
		return nil, ErrCheckoutUnavailable
	}

	response, err := s.temporalClient.QueryWorkflow(ctx, workflows.WorkflowID(checkoutID), "", models.QueryGetState)
	if err != nil {
		return nil, workflowError("query workflow", err)
	}

	var state models.CheckoutState
	if err := response.Get(&state); err != nil {
		return nil, fmt.Errorf("failed to decode workflow state: %w", err)
	}
	if state.TravelerID != travelerID {
		s.logger.Warn("Checkout requested by another traveler", "checkoutId", checkoutID, "traveler", travelerID)
		return nil, ErrCheckoutNotFound
	}
	return &state, nil
}

func (s *bookingServiceImpl) SubmitPayment(ctx context.Context, travelerID, checkoutID, paymentCode string) error {
	if _, err := s.GetCheckout(ctx, travelerID, checkoutID); err != nil {
		return err
	}
	signal := models.SubmitPaymentSignal{PaymentCode: paymentCode}
	err := s.temporalClient.SignalWorkflow(ctx, workflows.WorkflowID(checkoutID), "", models.SignalSubmitPayment, signal)
	if err != nil {
		return workflowError("signal payment", err)
	}
	return nil
}

func (s *bookingServiceImpl) CancelCheckout(ctx context.Context, travelerID, checkoutID string) error {
	if _, err := s.GetCheckout(ctx, travelerID, checkoutID); err != nil {
		return err
	}
	err := s.temporalClient.SignalWorkflow(ctx, workflows.WorkflowID(checkoutID), "", models.SignalCancelCheckout, nil)
	if err != nil {
		return workflowError("signal cancel", err)
	}
	return nil
}

// workflowError maps Temporal's missing-execution error to
// ErrCheckoutNotFound and wraps anything else.
func workflowError(op string, err error) error {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return ErrCheckoutNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	temporalmocks "go.temporal.io/sdk/mocks"

	"github.com/sabscarpenter/skytravel/internal/holds"
	holdmocks "github.com/sabscarpenter/skytravel/internal/holds/mocks"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	schedmocks "github.com/sabscarpenter/skytravel/internal/schedule/mocks"
	"github.com/sabscarpenter/skytravel/internal/search"
	"github.com/sabscarpenter/skytravel/internal/seatmap"
)

type fixture struct {
	repo     *holdmocks.MockRepository
	store    *schedmocks.MockStore
	temporal *temporalmocks.Client
	svc      BookingService
}

func newFixture(withTemporal bool) *fixture {
	f := &fixture{
		repo:  new(holdmocks.MockRepository),
		store: new(schedmocks.MockStore),
	}
	m := metrics.New(prometheus.NewRegistry())
	log := logger.NewNop()

	f.store.On("Flight", mock.Anything, "AZ100").Return(&schedule.FlightInstance{
		Number: "AZ100", AircraftModel: "A320", DistanceKm: 1000,
	}, nil).Maybe()
	f.store.On("AircraftModel", mock.Anything, "A320").Return(&seatmap.Configuration{
		Model: "A320", Layout: "3-3", Business: 4, Economy: 12,
	}, nil).Maybe()
	f.store.On("AircraftModel", mock.Anything, mock.Anything).Return(nil, schedule.ErrNotFound).Maybe()

	engine := search.NewEngine(f.store, nil, m, log)
	manager := holds.NewManager(f.repo, f.store, m, log)

	var tc client.Client
	if withTemporal {
		f.temporal = new(temporalmocks.Client)
		tc = f.temporal
	}
	f.svc = NewBookingService(engine, manager, f.store, tc, "skytravel-checkout-queue", log)
	return f
}

func TestReserveSeats_FlightFromFirstTicket(t *testing.T) {
	f := newFixture(false)
	f.repo.On("Reserve", mock.Anything, "AZ100", "t1", mock.Anything, mock.Anything).Return(nil, nil).Once()

	res, err := f.svc.ReserveSeats(context.Background(), "t1", &models.ReserveSeatsRequest{
		Legs: 1,
		Tickets: []models.SeatTicket{
			{FlightNumber: "AZ100", SeatCode: "2A", Class: "e", FirstName: "Ada", LastName: "Lovelace"},
		},
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.WithinDuration(t, time.Now().Add(holds.HoldTTL), res.ExpiresAt, time.Minute)
	f.repo.AssertExpectations(t)
}

func TestReserveSeats_MixedFlights(t *testing.T) {
	f := newFixture(false)

	_, err := f.svc.ReserveSeats(context.Background(), "t1", &models.ReserveSeatsRequest{
		FlightNumber: "AZ100",
		Tickets: []models.SeatTicket{
			{FlightNumber: "AZ100", SeatCode: "2A", Class: "e"},
			{FlightNumber: "AZ200", SeatCode: "2B", Class: "e"},
		},
	})

	var ve *holds.ValidationError
	assert.ErrorAs(t, err, &ve)
	f.repo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAircraftConfiguration(t *testing.T) {
	f := newFixture(false)

	cfg, err := f.svc.GetAircraftConfiguration(context.Background(), "A320")
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.TotalSeats)
	assert.Equal(t, "3-3", cfg.Layout)

	_, err = f.svc.GetAircraftConfiguration(context.Background(), "B747")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestStartCheckout(t *testing.T) {
	f := newFixture(true)
	run := new(temporalmocks.WorkflowRun)

	req := &models.CheckoutRequest{
		Tickets:     []models.FinalizeTicket{{FlightNumber: "AZ100", SeatCode: "2A"}},
		PaymentCode: "12345",
	}

	f.temporal.On("ExecuteWorkflow", mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.TaskQueue == "skytravel-checkout-queue" && strings.HasPrefix(opts.ID, "checkout-")
		}),
		mock.Anything,
		mock.MatchedBy(func(in models.CheckoutWorkflowInput) bool {
			return in.TravelerID == "t1" && in.PaymentCode == "12345" && len(in.Tickets) == 1
		}),
	).Return(run, nil).Once()
	run.On("GetID").Return("checkout-abc")

	started, err := f.svc.StartCheckout(context.Background(), "t1", req)

	require.NoError(t, err)
	assert.NotEmpty(t, started.CheckoutID)
	assert.Equal(t, "checkout-abc", started.WorkflowID)
	f.temporal.AssertExpectations(t)
}

// checkoutOwnedBy makes the state query of checkout "abc" report the traveler.
func (f *fixture) checkoutOwnedBy(traveler string) {
	val := new(temporalmocks.Value)
	val.On("Get", mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(0).(*models.CheckoutState) = models.CheckoutState{
			CheckoutID: "abc",
			TravelerID: traveler,
			Status:     models.CheckoutStatusAwaitingPayment,
		}
	}).Return(nil)
	f.temporal.On("QueryWorkflow", mock.Anything, "checkout-abc", "", models.QueryGetState).Return(val, nil)
}

func TestGetCheckout(t *testing.T) {
	t.Run("owner sees the state", func(t *testing.T) {
		f := newFixture(true)
		f.checkoutOwnedBy("t1")

		state, err := f.svc.GetCheckout(context.Background(), "t1", "abc")

		require.NoError(t, err)
		assert.Equal(t, models.CheckoutStatusAwaitingPayment, state.Status)
	})

	t.Run("another traveler gets not found", func(t *testing.T) {
		f := newFixture(true)
		f.checkoutOwnedBy("t1")

		_, err := f.svc.GetCheckout(context.Background(), "t2", "abc")

		assert.ErrorIs(t, err, ErrCheckoutNotFound)
	})

	t.Run("unknown workflow is not found", func(t *testing.T) {
		f := newFixture(true)
		f.temporal.On("QueryWorkflow", mock.Anything, "checkout-abc", "", models.QueryGetState).
			Return(nil, serviceerror.NewNotFound("workflow not found"))

		_, err := f.svc.GetCheckout(context.Background(), "t1", "abc")

		assert.ErrorIs(t, err, ErrCheckoutNotFound)
	})

	t.Run("other temporal errors are wrapped", func(t *testing.T) {
		f := newFixture(true)
		f.temporal.On("QueryWorkflow", mock.Anything, "checkout-abc", "", models.QueryGetState).
			Return(nil, errors.New("connection refused"))

		_, err := f.svc.GetCheckout(context.Background(), "t1", "abc")

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCheckoutNotFound)
	})
}

func TestSubmitPayment(t *testing.T) {
	f := newFixture(true)
	f.checkoutOwnedBy("t1")
	f.temporal.On("SignalWorkflow", mock.Anything, "checkout-abc", "", models.SignalSubmitPayment,
		models.SubmitPaymentSignal{PaymentCode: "12345"}).Return(nil).Once()

	require.NoError(t, f.svc.SubmitPayment(context.Background(), "t1", "abc", "12345"))
	f.temporal.AssertExpectations(t)
}

func TestSubmitPayment_OtherTraveler(t *testing.T) {
	f := newFixture(true)
	f.checkoutOwnedBy("t1")

	err := f.svc.SubmitPayment(context.Background(), "t2", "abc", "12345")

	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	f.temporal.AssertNotCalled(t, "SignalWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelCheckout(t *testing.T) {
	f := newFixture(true)
	f.checkoutOwnedBy("t1")
	f.temporal.On("SignalWorkflow", mock.Anything, "checkout-abc", "", models.SignalCancelCheckout, nil).Return(nil).Once()

	require.NoError(t, f.svc.CancelCheckout(context.Background(), "t1", "abc"))

	err := f.svc.CancelCheckout(context.Background(), "t2", "abc")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
	f.temporal.AssertNumberOfCalls(t, "SignalWorkflow", 1)
}

func TestCheckoutWithoutTemporal(t *testing.T) {
	f := newFixture(false)

	_, err := f.svc.StartCheckout(context.Background(), "t1", &models.CheckoutRequest{
		Tickets: []models.FinalizeTicket{{FlightNumber: "AZ100", SeatCode: "2A"}},
	})
	assert.ErrorIs(t, err, ErrCheckoutUnavailable)

	_, err = f.svc.GetCheckout(context.Background(), "t1", "abc")
	assert.ErrorIs(t, err, ErrCheckoutUnavailable)
}

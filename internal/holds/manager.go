package holds

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/sabscarpenter/skytravel/internal/fare"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
	"github.com/sabscarpenter/skytravel/internal/seatmap"
)

// Manager validates and prices hold requests and drives the repository.
type Manager struct {
	repo     Repository
	store    schedule.Store
	metrics  *metrics.Metrics
	logger   logger.Logger
	notifier Notifier
	now      func() time.Time
}

func NewManager(repo Repository, store schedule.Store, m *metrics.Metrics, log logger.Logger) *Manager {
	return &Manager{
		repo:     repo,
		store:    store,
		metrics:  m,
		logger:   log,
		notifier: nopNotifier{},
		now:      time.Now,
	}
}

// SetClock replaces the clock used to stamp and expire holds.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	m.notifier = n
}

// ReserveSeats holds every requested seat for HoldTTL or none of them.
// Any earlier unpaid holds of the traveler on the same flight are replaced.
func (m *Manager) ReserveSeats(ctx context.Context, req ReserveRequest) (*Reservation, error) {
	holds, err := m.prepare(ctx, req)
	if err != nil {
		m.metrics.HoldAttempts.WithLabelValues("invalid").Inc()
		return nil, err
	}

	now := m.now()
	expiresAt := now.Add(HoldTTL)
	for i := range holds {
		holds[i].ExpiresAt = &expiresAt
	}

	released, err := m.repo.Reserve(ctx, req.FlightNumber, req.TravelerID, holds, now)
	var se *StorageError
	if errors.As(err, &se) && se.Retryable() {
		m.logger.Warn("Retrying seat hold after transaction conflict",
			"flight", req.FlightNumber, "traveler", req.TravelerID, "error", err)
		released, err = m.repo.Reserve(ctx, req.FlightNumber, req.TravelerID, holds, now)
	}

	seats := lo.Map(holds, func(h Hold, _ int) string { return h.SeatCode })

	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		m.metrics.HoldAttempts.WithLabelValues("conflict").Inc()
		m.logger.Info("Seat hold conflict",
			"flight", req.FlightNumber, "traveler", req.TravelerID, "seats", conflict.Seats)
		return nil, err
	case err != nil:
		m.metrics.HoldAttempts.WithLabelValues("error").Inc()
		m.logger.Error("Seat hold failed",
			"flight", req.FlightNumber, "traveler", req.TravelerID, "error", err)
		return nil, err
	}

	m.metrics.HoldAttempts.WithLabelValues("success").Inc()
	m.logger.Info("Seats held",
		"flight", req.FlightNumber, "traveler", req.TravelerID, "seats", seats, "expiresAt", expiresAt)
	if len(released) > 0 {
		m.notifier.SeatsReleased(req.FlightNumber, released)
	}
	m.notifier.SeatsHeld(req.FlightNumber, req.TravelerID, seats)

	return &Reservation{FlightNumber: req.FlightNumber, Seats: seats, ExpiresAt: expiresAt}, nil
}

// prepare validates the request and prices each seat against the
// aircraft's seat map.
func (m *Manager) prepare(ctx context.Context, req ReserveRequest) ([]Hold, error) {
	if strings.TrimSpace(req.TravelerID) == "" {
		return nil, &ValidationError{Field: "traveler", Reason: "required"}
	}
	if strings.TrimSpace(req.FlightNumber) == "" {
		return nil, &ValidationError{Field: "flight", Reason: "required"}
	}
	if len(req.Seats) == 0 {
		return nil, &ValidationError{Field: "seats", Reason: "at least one seat is required"}
	}
	legs := req.Legs
	if legs == 0 {
		legs = 1
	}
	if legs < 1 || legs > MaxLegs {
		return nil, &ValidationError{Field: "legs", Reason: fmt.Sprintf("must be between 1 and %d", MaxLegs)}
	}

	seen := make(map[string]struct{}, len(req.Seats))
	for _, s := range req.Seats {
		code := normalizeSeat(s.SeatCode)
		if code == "" {
			return nil, &ValidationError{Field: "seat", Reason: "seat code is required"}
		}
		if _, dup := seen[code]; dup {
			return nil, &ValidationError{Field: "seat", Reason: fmt.Sprintf("seat %s requested twice", code)}
		}
		if s.ExtraBags < 0 {
			return nil, &ValidationError{Field: "bags", Reason: "must not be negative"}
		}
		seen[code] = struct{}{}
	}

	flight, _, seats, err := m.flightSeats(ctx, req.FlightNumber)
	if err != nil {
		return nil, err
	}
	index := seatmap.Index(seats)

	holds := make([]Hold, 0, len(req.Seats))
	for _, s := range req.Seats {
		code := normalizeSeat(s.SeatCode)
		class, err := models.ParseFareClass(s.FareClass)
		if err != nil {
			return nil, &InvalidClassError{Token: s.FareClass}
		}
		seat, ok := index[code]
		if !ok {
			return nil, &ValidationError{Field: "seat", Reason: fmt.Sprintf("seat %s does not exist on %s", code, flight.Number)}
		}
		if seat.Class != class {
			return nil, &InvalidClassError{Token: s.FareClass, Seat: code}
		}

		holds = append(holds, Hold{
			TicketNumber: TicketNumber(flight.Number, code),
			FlightNumber: flight.Number,
			SeatCode:     code,
			TravelerID:   req.TravelerID,
			Class:        class,
			Price:        fare.SeatPrice(flight.DistanceKm, legs, class, seat.Position),
			FirstName:    strings.TrimSpace(s.FirstName),
			LastName:     strings.TrimSpace(s.LastName),
			ExtraBags:    s.ExtraBags,
		})
	}
	return holds, nil
}

func (m *Manager) flightSeats(ctx context.Context, flightNumber string) (*schedule.FlightInstance, *seatmap.Configuration, []seatmap.Seat, error) {
	flight, err := m.store.Flight(ctx, flightNumber)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load flight %s: %w", flightNumber, err)
	}
	cfg, err := m.store.AircraftModel(ctx, flight.AircraftModel)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load aircraft %s: %w", flight.AircraftModel, err)
	}
	seats, err := seatmap.Build(*cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build seat map for %s: %w", flight.AircraftModel, err)
	}
	return flight, cfg, seats, nil
}

// OccupiedSeats lists seats of the flight that are ticketed or held by
// another traveler, sorted.
func (m *Manager) OccupiedSeats(ctx context.Context, flightNumber, travelerID string) ([]string, error) {
	return m.repo.OccupiedSeats(ctx, flightNumber, travelerID, m.now())
}

func (m *Manager) IsLiveHoldOwnedBy(ctx context.Context, flightNumber, seatCode, travelerID string) (bool, error) {
	return m.repo.IsLiveHoldOwnedBy(ctx, flightNumber, normalizeSeat(seatCode), travelerID, m.now())
}

// SeatMap renders the flight's seats priced for an itinerary of legs
// flights, with availability as seen by travelerID.
func (m *Manager) SeatMap(ctx context.Context, flightNumber string, legs int, travelerID string) (*models.SeatMapResponse, error) {
	flight, cfg, seats, err := m.flightSeats(ctx, flightNumber)
	if err != nil {
		return nil, err
	}
	occupied, err := m.OccupiedSeats(ctx, flightNumber, travelerID)
	if err != nil {
		return nil, err
	}
	taken := lo.SliceToMap(occupied, func(code string) (string, bool) { return code, true })

	views := make([]models.SeatView, len(seats))
	for i, s := range seats {
		status := models.SeatStatusAvailable
		if taken[s.Code] {
			status = models.SeatStatusOccupied
		}
		views[i] = models.SeatView{
			Code:     s.Code,
			Row:      s.Row,
			Letter:   s.Letter,
			Class:    s.Class,
			Position: s.Position,
			Price:    fare.SeatPrice(flight.DistanceKm, legs, s.Class, s.Position),
			Status:   status,
		}
	}

	return &models.SeatMapResponse{
		FlightNumber: flight.Number,
		Layout:       cfg.Layout,
		Seats:        views,
	}, nil
}

// Quote returns the amount due for the given seats, including bag fees,
// and the instant the earliest of their holds lapses. Every seat must be a
// live hold of the traveler.
func (m *Manager) Quote(ctx context.Context, travelerID string, seats []FinalizeSeat) (*Quote, error) {
	if err := validateFinalize(travelerID, seats); err != nil {
		return nil, err
	}

	live, err := m.repo.LiveHolds(ctx, travelerID, m.now())
	if err != nil {
		return nil, err
	}
	byKey := lo.KeyBy(live, func(h Hold) string { return TicketNumber(h.FlightNumber, h.SeatCode) })

	var q Quote
	for _, s := range seats {
		h, ok := byKey[TicketNumber(s.FlightNumber, normalizeSeat(s.SeatCode))]
		if !ok || h.ExpiresAt == nil {
			return nil, fmt.Errorf("seat %s on %s: %w", s.SeatCode, s.FlightNumber, ErrHoldExpired)
		}
		q.Amount += h.Price + fare.BagsPrice(s.ExtraBags)
		if q.ExpiresAt.IsZero() || h.ExpiresAt.Before(q.ExpiresAt) {
			q.ExpiresAt = *h.ExpiresAt
		}
	}
	return &q, nil
}

// Finalize converts live holds into tickets in one transaction. If any seat
// is not a live hold of the traveler nothing changes and ErrHoldExpired is
// returned.
func (m *Manager) Finalize(ctx context.Context, travelerID string, seats []FinalizeSeat) error {
	if err := validateFinalize(travelerID, seats); err != nil {
		return err
	}

	normalized := lo.Map(seats, func(s FinalizeSeat, _ int) FinalizeSeat {
		s.SeatCode = normalizeSeat(s.SeatCode)
		return s
	})

	err := m.repo.Finalize(ctx, travelerID, normalized, m.now())
	var se *StorageError
	if errors.As(err, &se) && se.Retryable() {
		err = m.repo.Finalize(ctx, travelerID, normalized, m.now())
	}
	if err != nil {
		m.logger.Warn("Failed to finalize tickets", "traveler", travelerID, "error", err)
		return err
	}

	m.metrics.TicketsFinalized.Add(float64(len(normalized)))
	for flight, group := range lo.GroupBy(normalized, func(s FinalizeSeat) string { return s.FlightNumber }) {
		codes := lo.Map(group, func(s FinalizeSeat, _ int) string { return s.SeatCode })
		m.notifier.SeatsTicketed(flight, codes)
	}
	m.logger.Info("Tickets finalized", "traveler", travelerID, "count", len(normalized))
	return nil
}

// PurgeExpired deletes every expired hold and reports the released seats.
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	released, err := m.repo.PurgeExpired(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if len(released) == 0 {
		return 0, nil
	}

	m.metrics.HoldsPurged.Add(float64(len(released)))
	byFlight := lo.GroupBy(released, func(r ReleasedSeat) string { return r.FlightNumber })
	flights := lo.Keys(byFlight)
	sort.Strings(flights)
	for _, flight := range flights {
		codes := lo.Map(byFlight[flight], func(r ReleasedSeat, _ int) string { return r.SeatCode })
		m.notifier.SeatsReleased(flight, codes)
	}
	return len(released), nil
}

func validateFinalize(travelerID string, seats []FinalizeSeat) error {
	if strings.TrimSpace(travelerID) == "" {
		return &ValidationError{Field: "traveler", Reason: "required"}
	}
	if len(seats) == 0 {
		return &ValidationError{Field: "seats", Reason: "at least one seat is required"}
	}
	for _, s := range seats {
		if s.FlightNumber == "" || normalizeSeat(s.SeatCode) == "" {
			return &ValidationError{Field: "seat", Reason: "flight and seat are required"}
		}
		if s.ExtraBags < 0 {
			return &ValidationError{Field: "bags", Reason: "must not be negative"}
		}
	}
	return nil
}

// TicketNumber is the ticket identifier for a seat on a flight.
func TicketNumber(flightNumber, seatCode string) string {
	return flightNumber + "-" + seatCode
}

func normalizeSeat(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

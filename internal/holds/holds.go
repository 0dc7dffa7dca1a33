// Package holds places, finalizes and expires seat holds. Holds are
// coordinated exclusively through Postgres: every attempt is one
// read-committed transaction guarded by a unique index on
// (flight_number, seat_code).
package holds

import (
	"context"
	"time"

	"github.com/sabscarpenter/skytravel/internal/models"
)

// HoldTTL is how long an unpaid hold keeps its seat.
const HoldTTL = 15 * time.Minute

// MaxLegs is the most flights an itinerary, and so a fare, can span.
const MaxLegs = 3

// SeatRequest is one seat of a hold attempt as submitted by the client
type SeatRequest struct {
	SeatCode  string
	FareClass string
	FirstName string
	LastName  string
	ExtraBags int
}

// ReserveRequest holds seats on one flight for one traveler
type ReserveRequest struct {
	FlightNumber string
	TravelerID   string
	Legs         int
	Seats        []SeatRequest
}

// Hold is one row of seat_holds. ExpiresAt is nil once ticketed.
type Hold struct {
	TicketNumber string
	FlightNumber string
	SeatCode     string
	TravelerID   string
	Class        models.FareClass
	Price        int
	FirstName    string
	LastName     string
	ExtraBags    int
	ExpiresAt    *time.Time
}

// FinalizeSeat turns one live hold into a ticket
type FinalizeSeat struct {
	FlightNumber string
	SeatCode     string
	ExtraBags    int
}

// ReleasedSeat identifies a hold removed by the expiry sweep
type ReleasedSeat struct {
	FlightNumber string
	SeatCode     string
}

// Reservation is the result of a successful hold attempt
type Reservation struct {
	FlightNumber string
	Seats        []string
	ExpiresAt    time.Time
}

// Quote is the amount due to ticket a set of holds
type Quote struct {
	Amount    int
	ExpiresAt time.Time
}

// Repository persists holds. Every method takes the current instant so
// expiry is decided by the caller's clock.
type Repository interface {
	// Reserve purges expired holds of the flight, drops the traveler's own
	// unpaid holds on it, and inserts holds, all in one transaction. It
	// returns the seats the purge and the supersession freed, excluding the
	// seats being held again, sorted.
	Reserve(ctx context.Context, flightNumber, travelerID string, holds []Hold, now time.Time) ([]string, error)
	OccupiedSeats(ctx context.Context, flightNumber, travelerID string, now time.Time) ([]string, error)
	IsLiveHoldOwnedBy(ctx context.Context, flightNumber, seatCode, travelerID string, now time.Time) (bool, error)
	LiveHolds(ctx context.Context, travelerID string, now time.Time) ([]Hold, error)
	Finalize(ctx context.Context, travelerID string, seats []FinalizeSeat, now time.Time) error
	PurgeExpired(ctx context.Context, now time.Time) ([]ReleasedSeat, error)
}

// Notifier is told about seat state changes so watchers can refresh
type Notifier interface {
	SeatsHeld(flightNumber, travelerID string, seats []string)
	SeatsTicketed(flightNumber string, seats []string)
	SeatsReleased(flightNumber string, seats []string)
}

type nopNotifier struct{}

func (nopNotifier) SeatsHeld(string, string, []string) {}
func (nopNotifier) SeatsTicketed(string, []string)     {}
func (nopNotifier) SeatsReleased(string, []string)     {}

// FinalizeSeats converts client ticket records into finalize requests.
func FinalizeSeats(tickets []models.FinalizeTicket) []FinalizeSeat {
	seats := make([]FinalizeSeat, len(tickets))
	for i, t := range tickets {
		seats[i] = FinalizeSeat{FlightNumber: t.FlightNumber, SeatCode: t.SeatCode, ExtraBags: t.ExtraBags}
	}
	return seats
}

// TicketNumber is the ticket the seat becomes once finalized.
func (s FinalizeSeat) TicketNumber() string {
	return TicketNumber(s.FlightNumber, normalizeSeat(s.SeatCode))
}

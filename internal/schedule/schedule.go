// Package schedule reads the flight timetable and aircraft reference data.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/sabscarpenter/skytravel/internal/seatmap"
)

var ErrNotFound = errors.New("not found")

// FlightInstance is one scheduled departure
type FlightInstance struct {
	Number          string
	Carrier         string
	Origin          string
	Destination     string
	OriginCity      string
	DestinationCity string
	DepartsAt       time.Time
	DurationMinutes int
	AircraftModel   string
	DistanceKm      int
}

// ArrivesAt is the scheduled arrival instant.
func (f FlightInstance) ArrivesAt() time.Time {
	return f.DepartsAt.Add(time.Duration(f.DurationMinutes) * time.Minute)
}

// Store is read-only access to the timetable
type Store interface {
	// FlightsDepartingBetween returns every flight departing in [from, to),
	// ordered by departure.
	FlightsDepartingBetween(ctx context.Context, from, to time.Time) ([]FlightInstance, error)
	Flight(ctx context.Context, number string) (*FlightInstance, error)
	AircraftModel(ctx context.Context, name string) (*seatmap.Configuration, error)
}

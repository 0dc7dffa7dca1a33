// Package search enumerates and ranks point-to-point itineraries over a
// flight timetable.
package search

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sabscarpenter/skytravel/internal/schedule"
)

const (
	DefaultSearchWindowHours    = 72
	DefaultMaxStops             = 2
	DefaultMinConnectionMinutes = 120
	DefaultMaxConnectionHours   = 12
	DefaultMaxTripHours         = 36
	DefaultLimit                = 5

	MinRoundTripWindowHours = 24
	MaxRoundTripWindowHours = 72
)

// Options bound the itineraries a search may return
type Options struct {
	SearchWindowHours    int
	MaxStops             int
	MinConnectionMinutes int
	MaxConnectionHours   int
	MaxTripHours         int
	Limit                int
}

// DefaultOptions returns the standard search bounds.
func DefaultOptions() Options {
	return Options{
		SearchWindowHours:    DefaultSearchWindowHours,
		MaxStops:             DefaultMaxStops,
		MinConnectionMinutes: DefaultMinConnectionMinutes,
		MaxConnectionHours:   DefaultMaxConnectionHours,
		MaxTripHours:         DefaultMaxTripHours,
		Limit:                DefaultLimit,
	}
}

// Itinerary is an ordered sequence of connecting legs
type Itinerary struct {
	Legs []schedule.FlightInstance `json:"legs"`
}

// DepartsAt is the first leg's departure.
func (it Itinerary) DepartsAt() time.Time {
	return it.Legs[0].DepartsAt
}

// ArrivesAt is the last leg's arrival.
func (it Itinerary) ArrivesAt() time.Time {
	return it.Legs[len(it.Legs)-1].ArrivesAt()
}

// TotalDuration is the time from first departure to last arrival.
func (it Itinerary) TotalDuration() time.Duration {
	return it.ArrivesAt().Sub(it.DepartsAt())
}

// Stops is the number of intermediate airports.
func (it Itinerary) Stops() int {
	return len(it.Legs) - 1
}

// Signature identifies an itinerary by its ordered flight numbers.
func (it Itinerary) Signature() string {
	numbers := make([]string, len(it.Legs))
	for i, leg := range it.Legs {
		numbers[i] = leg.Number
	}
	return strings.Join(numbers, "-")
}

// FormatDuration renders a duration as "5h 05m".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// Find enumerates the direct, one-stop and two-stop itineraries from origin
// to destination among flights, then ranks, deduplicates and truncates them.
// flights is expected to already be restricted to the search window.
func Find(flights []schedule.FlightInstance, origin, destination string, opts Options) []Itinerary {
	byOrigin := make(map[string][]schedule.FlightInstance)
	for _, f := range flights {
		if f.Origin == f.Destination {
			continue
		}
		byOrigin[f.Origin] = append(byOrigin[f.Origin], f)
	}

	minConn := time.Duration(opts.MinConnectionMinutes) * time.Minute
	maxConn := time.Duration(opts.MaxConnectionHours) * time.Hour
	maxTrip := time.Duration(opts.MaxTripHours) * time.Hour

	connects := func(prev, next schedule.FlightInstance) bool {
		arrival := prev.ArrivesAt()
		return !next.DepartsAt.Before(arrival.Add(minConn)) && !next.DepartsAt.After(arrival.Add(maxConn))
	}

	var found []Itinerary
	accept := func(legs ...schedule.FlightInstance) {
		it := Itinerary{Legs: legs}
		if it.TotalDuration() <= maxTrip {
			found = append(found, it)
		}
	}

	for _, v1 := range byOrigin[origin] {
		if v1.Destination == destination {
			accept(v1)
		}
	}

	if opts.MaxStops >= 1 {
		for _, v1 := range byOrigin[origin] {
			x := v1.Destination
			if x == destination || x == origin {
				continue
			}
			for _, v2 := range byOrigin[x] {
				if v2.Destination != destination || !connects(v1, v2) {
					continue
				}
				accept(v1, v2)
			}
		}
	}

	if opts.MaxStops >= 2 {
		for _, v1 := range byOrigin[origin] {
			x := v1.Destination
			if x == destination || x == origin {
				continue
			}
			for _, v2 := range byOrigin[x] {
				y := v2.Destination
				if y == destination || y == origin || y == x || !connects(v1, v2) {
					continue
				}
				for _, v3 := range byOrigin[y] {
					if v3.Destination != destination || !connects(v2, v3) {
						continue
					}
					accept(v1, v2, v3)
				}
			}
		}
	}

	return rank(found, opts.Limit)
}

// rank sorts by departure, then total duration, then leg count, drops
// repeated flight sequences and keeps at most limit itineraries.
func rank(itineraries []Itinerary, limit int) []Itinerary {
	sort.SliceStable(itineraries, func(i, j int) bool {
		a, b := itineraries[i], itineraries[j]
		if !a.DepartsAt().Equal(b.DepartsAt()) {
			return a.DepartsAt().Before(b.DepartsAt())
		}
		if a.TotalDuration() != b.TotalDuration() {
			return a.TotalDuration() < b.TotalDuration()
		}
		return len(a.Legs) < len(b.Legs)
	})

	seen := make(map[string]struct{}, len(itineraries))
	unique := make([]Itinerary, 0, len(itineraries))
	for _, it := range itineraries {
		sig := it.Signature()
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		unique = append(unique, it)
	}

	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// RoundTripWindowHours derives the outbound search window from the gap
// between outbound and return dates, rounded and clamped to [24, 72] hours.
func RoundTripWindowHours(outbound, inbound time.Time) int {
	hours := inbound.Sub(outbound).Hours()
	switch {
	case hours < MinRoundTripWindowHours:
		return MinRoundTripWindowHours
	case hours > MaxRoundTripWindowHours:
		return MaxRoundTripWindowHours
	default:
		return int(hours + 0.5)
	}
}

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sabscarpenter/skytravel/internal/cache"
	"github.com/sabscarpenter/skytravel/internal/fare"
	"github.com/sabscarpenter/skytravel/internal/logger"
	"github.com/sabscarpenter/skytravel/internal/metrics"
	"github.com/sabscarpenter/skytravel/internal/models"
	"github.com/sabscarpenter/skytravel/internal/schedule"
)

// Query is a one-way search request
type Query struct {
	Origin             string
	Destination        string
	DepartureNotBefore time.Time
}

func (q Query) cacheKey(opts Options) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d|%d|%d|%d|%d",
		q.Origin, q.Destination, q.DepartureNotBefore.UTC().Unix(),
		opts.SearchWindowHours, opts.MaxStops, opts.MinConnectionMinutes,
		opts.MaxConnectionHours, opts.MaxTripHours, opts.Limit)
}

// RoundTrip holds both directions of a round-trip search
type RoundTrip struct {
	Outbound []Itinerary
	Return   []Itinerary
}

// Engine binds the itinerary search to a timetable store
type Engine struct {
	store   schedule.Store
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewEngine creates a search engine. A nil cache disables caching.
func NewEngine(store schedule.Store, c cache.Cache, m *metrics.Metrics, log logger.Logger) *Engine {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Engine{store: store, cache: c, metrics: m, logger: log}
}

// Search returns at most opts.Limit ranked itineraries for q. An empty
// result is not an error.
func (e *Engine) Search(ctx context.Context, q Query, opts Options) ([]Itinerary, error) {
	start := time.Now()
	key := q.cacheKey(opts)

	if data, ok := e.cache.Get(ctx, key); ok {
		var cached []Itinerary
		if err := json.Unmarshal(data, &cached); err == nil {
			e.metrics.SearchCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}
	e.metrics.SearchCacheHits.WithLabelValues("miss").Inc()

	to := q.DepartureNotBefore.Add(time.Duration(opts.SearchWindowHours) * time.Hour)
	flights, err := e.store.FlightsDepartingBetween(ctx, q.DepartureNotBefore, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load flights: %w", err)
	}

	results := Find(flights, q.Origin, q.Destination, opts)

	e.metrics.SearchDuration.Observe(time.Since(start).Seconds())
	e.metrics.SearchResults.Observe(float64(len(results)))
	e.logger.Debug("Itinerary search completed",
		"origin", q.Origin,
		"destination", q.Destination,
		"flights", len(flights),
		"results", len(results))

	if data, err := json.Marshal(results); err == nil {
		if err := e.cache.Set(ctx, key, data); err != nil {
			e.logger.Warn("Failed to cache itineraries", "error", err)
		}
	}

	return results, nil
}

// RoundTrip searches origin→destination from outbound with a window derived
// from the stay length, and destination→origin from inbound with the default
// options. Both searches run concurrently.
func (e *Engine) RoundTrip(ctx context.Context, origin, destination string, outbound, inbound time.Time) (*RoundTrip, error) {
	outOpts := DefaultOptions()
	outOpts.SearchWindowHours = RoundTripWindowHours(outbound, inbound)

	var result RoundTrip
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		its, err := e.Search(gctx, Query{Origin: origin, Destination: destination, DepartureNotBefore: outbound}, outOpts)
		if err != nil {
			return fmt.Errorf("outbound: %w", err)
		}
		result.Outbound = its
		return nil
	})

	g.Go(func() error {
		its, err := e.Search(gctx, Query{Origin: destination, Destination: origin, DepartureNotBefore: inbound}, DefaultOptions())
		if err != nil {
			return fmt.Errorf("return: %w", err)
		}
		result.Return = its
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

// ToView renders an itinerary for clients, pricing each leg at the economy
// base fare for the itinerary's length.
func ToView(it Itinerary) models.ItineraryView {
	legs := make([]models.FlightLeg, len(it.Legs))
	for i, f := range it.Legs {
		legs[i] = models.FlightLeg{
			FlightNumber:    f.Number,
			Carrier:         f.Carrier,
			Origin:          f.Origin,
			Destination:     f.Destination,
			OriginCity:      f.OriginCity,
			DestinationCity: f.DestinationCity,
			DepartureTime:   f.DepartsAt.Format(time.RFC3339),
			ArrivalTime:     f.ArrivesAt().Format(time.RFC3339),
			AircraftModel:   f.AircraftModel,
			DistanceKm:      f.DistanceKm,
			EconomyPrice:    fare.PricePerSeat(f.DistanceKm, len(it.Legs), models.FareClassEconomy),
		}
	}
	return models.ItineraryView{
		TotalDuration: FormatDuration(it.TotalDuration()),
		Legs:          legs,
	}
}

// ToViews renders a ranked list, never returning nil.
func ToViews(its []Itinerary) []models.ItineraryView {
	views := make([]models.ItineraryView, 0, len(its))
	for _, it := range its {
		views = append(views, ToView(it))
	}
	return views
}

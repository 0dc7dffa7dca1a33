package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sabscarpenter/skytravel/internal/seatmap"
)

const flightColumns = `
	SELECT f.number, c.name, r.origin, r.destination, ao.city, ad.city,
	       f.departs_at, r.duration_minutes, a.model, r.distance_km
	FROM flights f
	JOIN routes r    ON f.route_id = r.id
	JOIN airports ao ON r.origin = ao.iata_code
	JOIN airports ad ON r.destination = ad.iata_code
	JOIN aircraft a  ON f.aircraft_id = a.id
	JOIN carriers c  ON a.carrier_id = c.id
`

// PostgresStore implements Store over the flights/routes/aircraft tables
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FlightsDepartingBetween(ctx context.Context, from, to time.Time) ([]FlightInstance, error) {
	rows, err := s.pool.Query(ctx, flightColumns+`
		WHERE f.departs_at >= $1 AND f.departs_at < $2
		ORDER BY f.departs_at ASC, f.number ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []FlightInstance
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flights: %w", err)
	}

	return flights, nil
}

func (s *PostgresStore) Flight(ctx context.Context, number string) (*FlightInstance, error) {
	f, err := scanFlight(s.pool.QueryRow(ctx, flightColumns+`WHERE f.number = $1`, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *PostgresStore) AircraftModel(ctx context.Context, name string) (*seatmap.Configuration, error) {
	var cfg seatmap.Configuration
	err := s.pool.QueryRow(ctx, `
		SELECT name, layout, seats_first, seats_business, seats_economy
		FROM aircraft_models
		WHERE name = $1
	`, name).Scan(&cfg.Model, &cfg.Layout, &cfg.First, &cfg.Business, &cfg.Economy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get aircraft model: %w", err)
	}
	return &cfg, nil
}

func scanFlight(row pgx.Row) (*FlightInstance, error) {
	var f FlightInstance
	err := row.Scan(
		&f.Number, &f.Carrier, &f.Origin, &f.Destination, &f.OriginCity, &f.DestinationCity,
		&f.DepartsAt, &f.DurationMinutes, &f.AircraftModel, &f.DistanceKm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan flight: %w", err)
	}
	return &f, nil
}

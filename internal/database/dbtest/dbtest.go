// Package dbtest starts a throwaway Postgres for repository tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sabscarpenter/skytravel/internal/database"
)

// NewPool starts a Postgres container, applies the schema and returns a pool.
// The container is terminated when the test finishes. Skipped with -short.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		postgres.WithDatabase("skytravel"),
		postgres.WithUsername("skytravel"),
		postgres.WithPassword("skytravel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

// Fixture seeds reference data for one flight network.
type Fixture struct {
	pool  *pgxpool.Pool
	t     *testing.T
	route map[[2]string]int
}

// NewFixture wraps pool with helpers to insert airports, aircraft and flights.
func NewFixture(t *testing.T, pool *pgxpool.Pool) *Fixture {
	return &Fixture{pool: pool, t: t, route: make(map[[2]string]int)}
}

// Airport inserts an airport.
func (f *Fixture) Airport(code, city string) *Fixture {
	_, err := f.pool.Exec(context.Background(),
		`INSERT INTO airports (iata_code, name, city) VALUES ($1, $1, $2) ON CONFLICT DO NOTHING`, code, city)
	require.NoError(f.t, err)
	return f
}

// Aircraft inserts a model, a carrier and one airframe. Returns the airframe id.
func (f *Fixture) Aircraft(model, layout string, first, business, economy int, carrier string) int {
	ctx := context.Background()
	_, err := f.pool.Exec(ctx, `
		INSERT INTO aircraft_models (name, seats_first, seats_business, seats_economy, layout)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING
	`, model, first, business, economy, layout)
	require.NoError(f.t, err)

	var carrierID int
	err = f.pool.QueryRow(ctx, `
		INSERT INTO carriers (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, carrier).Scan(&carrierID)
	require.NoError(f.t, err)

	var id int
	err = f.pool.QueryRow(ctx, `INSERT INTO aircraft (model, carrier_id) VALUES ($1, $2) RETURNING id`,
		model, carrierID).Scan(&id)
	require.NoError(f.t, err)
	return id
}

// Route inserts a route once per (origin, destination) pair.
func (f *Fixture) Route(origin, destination string, durationMinutes, distanceKm int) int {
	key := [2]string{origin, destination}
	if id, ok := f.route[key]; ok {
		return id
	}
	var id int
	err := f.pool.QueryRow(context.Background(), `
		INSERT INTO routes (origin, destination, duration_minutes, distance_km)
		VALUES ($1, $2, $3, $4) RETURNING id
	`, origin, destination, durationMinutes, distanceKm).Scan(&id)
	require.NoError(f.t, err)
	f.route[key] = id
	return id
}

// Flight inserts a flight instance.
func (f *Fixture) Flight(number string, routeID, aircraftID int, departsAt time.Time) {
	_, err := f.pool.Exec(context.Background(), `
		INSERT INTO flights (number, route_id, aircraft_id, departs_at) VALUES ($1, $2, $3, $4)
	`, number, routeID, aircraftID, departsAt)
	require.NoError(f.t, err)
}

package holds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/sabscarpenter/skytravel/internal/database"
	"github.com/sabscarpenter/skytravel/internal/fare"
	"github.com/sabscarpenter/skytravel/internal/models"
)

const (
	purgeFlightQuery = `
		DELETE FROM seat_holds
		WHERE flight_number = $1 AND expires_at IS NOT NULL AND expires_at < $2
		RETURNING seat_code`

	releaseOwnQuery = `
		DELETE FROM seat_holds
		WHERE flight_number = $1 AND traveler_id = $2 AND expires_at IS NOT NULL
		RETURNING seat_code`

	takenSeatsQuery = `
		SELECT seat_code FROM seat_holds
		WHERE flight_number = $1 AND seat_code = ANY($2)
		  AND (expires_at IS NULL OR expires_at >= $3)
		ORDER BY seat_code`

	insertHoldQuery = `
		INSERT INTO seat_holds (
			ticket_number, flight_number, seat_code, traveler_id, fare_class,
			price, first_name, last_name, extra_bags, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	occupiedSeatsQuery = `
		SELECT seat_code FROM seat_holds
		WHERE flight_number = $1
		  AND (expires_at IS NULL OR (expires_at >= $2 AND traveler_id <> $3))
		ORDER BY seat_code`

	liveHoldQuery = `
		SELECT EXISTS (
			SELECT 1 FROM seat_holds
			WHERE flight_number = $1 AND seat_code = $2 AND traveler_id = $3
			  AND expires_at IS NOT NULL AND expires_at >= $4
		)`

	liveHoldsQuery = `
		SELECT ticket_number, flight_number, seat_code, traveler_id, fare_class,
		       price, first_name, last_name, extra_bags, expires_at
		FROM seat_holds
		WHERE traveler_id = $1 AND expires_at IS NOT NULL AND expires_at >= $2
		ORDER BY flight_number, seat_code`

	finalizeQuery = `
		UPDATE seat_holds
		SET expires_at = NULL, extra_bags = $4, price = price + $5
		WHERE flight_number = $1 AND seat_code = $2 AND traveler_id = $3
		  AND expires_at IS NOT NULL AND expires_at >= $6`

	purgeAllQuery = `
		DELETE FROM seat_holds
		WHERE expires_at IS NOT NULL AND expires_at < $1
		RETURNING flight_number, seat_code`
)

// PostgresRepository implements Repository on pgx
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Reserve(ctx context.Context, flightNumber, travelerID string, holds []Hold, now time.Time) ([]string, error) {
	seatCodes := lo.Map(holds, func(h Hold, _ int) string { return h.SeatCode })

	var freed []string
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		expired, err := collectSeatCodes(tx.Query(ctx, purgeFlightQuery, flightNumber, now))
		if err != nil {
			return storageError("purge expired holds", err)
		}

		superseded, err := collectSeatCodes(tx.Query(ctx, releaseOwnQuery, flightNumber, travelerID))
		if err != nil {
			return storageError("release previous holds", err)
		}

		taken, err := collectSeatCodes(tx.Query(ctx, takenSeatsQuery, flightNumber, seatCodes, now))
		if err != nil {
			return storageError("check seat availability", err)
		}
		if len(taken) > 0 {
			return &ConflictError{Seats: taken}
		}

		// Fixed insert order keeps overlapping attempts from deadlocking.
		ordered := append([]Hold(nil), holds...)
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].SeatCode < ordered[j].SeatCode })

		batch := &pgx.Batch{}
		for _, h := range ordered {
			batch.Queue(insertHoldQuery,
				h.TicketNumber, h.FlightNumber, h.SeatCode, h.TravelerID, h.Class.Code(),
				h.Price, h.FirstName, h.LastName, h.ExtraBags, h.ExpiresAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return storageError("insert holds", err)
		}

		freed = lo.Without(lo.Uniq(append(expired, superseded...)), seatCodes...)
		sort.Strings(freed)
		return nil
	})

	// A concurrent attempt committed one of our seats between the check and
	// the insert.
	if database.IsUniqueViolation(err) {
		return nil, r.raceConflict(ctx, flightNumber, seatCodes, now)
	}
	if err != nil {
		return nil, err
	}
	return freed, nil
}

func (r *PostgresRepository) raceConflict(ctx context.Context, flightNumber string, seatCodes []string, now time.Time) error {
	taken, err := collectSeatCodes(r.pool.Query(ctx, takenSeatsQuery, flightNumber, seatCodes, now))
	if err != nil || len(taken) == 0 {
		return &ConflictError{Seats: seatCodes}
	}
	return &ConflictError{Seats: taken}
}

func (r *PostgresRepository) OccupiedSeats(ctx context.Context, flightNumber, travelerID string, now time.Time) ([]string, error) {
	seats, err := collectSeatCodes(r.pool.Query(ctx, occupiedSeatsQuery, flightNumber, now, travelerID))
	if err != nil {
		return nil, storageError("list occupied seats", err)
	}
	return seats, nil
}

func (r *PostgresRepository) IsLiveHoldOwnedBy(ctx context.Context, flightNumber, seatCode, travelerID string, now time.Time) (bool, error) {
	var live bool
	if err := r.pool.QueryRow(ctx, liveHoldQuery, flightNumber, seatCode, travelerID, now).Scan(&live); err != nil {
		return false, storageError("check hold", err)
	}
	return live, nil
}

func (r *PostgresRepository) LiveHolds(ctx context.Context, travelerID string, now time.Time) ([]Hold, error) {
	rows, err := r.pool.Query(ctx, liveHoldsQuery, travelerID, now)
	if err != nil {
		return nil, storageError("list holds", err)
	}
	defer rows.Close()

	var holds []Hold
	for rows.Next() {
		var h Hold
		var code string
		if err := rows.Scan(&h.TicketNumber, &h.FlightNumber, &h.SeatCode, &h.TravelerID, &code,
			&h.Price, &h.FirstName, &h.LastName, &h.ExtraBags, &h.ExpiresAt); err != nil {
			return nil, storageError("scan hold", err)
		}
		class, err := models.ParseFareClass(code)
		if err != nil {
			return nil, storageError("scan hold", err)
		}
		h.Class = class
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("list holds", err)
	}
	return holds, nil
}

func (r *PostgresRepository) Finalize(ctx context.Context, travelerID string, seats []FinalizeSeat, now time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, s := range seats {
			tag, err := tx.Exec(ctx, finalizeQuery,
				s.FlightNumber, s.SeatCode, travelerID, s.ExtraBags, fare.BagsPrice(s.ExtraBags), now)
			if err != nil {
				return storageError("finalize hold", err)
			}
			if tag.RowsAffected() != 1 {
				return fmt.Errorf("seat %s on %s: %w", s.SeatCode, s.FlightNumber, ErrHoldExpired)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) ([]ReleasedSeat, error) {
	rows, err := r.pool.Query(ctx, purgeAllQuery, now)
	if err != nil {
		return nil, storageError("purge expired holds", err)
	}
	released, err := pgx.CollectRows(rows, pgx.RowToStructByPos[ReleasedSeat])
	if err != nil {
		return nil, storageError("purge expired holds", err)
	}
	return released, nil
}

// inTx runs fn in a read-committed transaction, committing only if fn
// returns nil.
func (r *PostgresRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storageError("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit transaction", err)
	}
	return nil
}

func collectSeatCodes(rows pgx.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if seats == nil {
		seats = []string{}
	}
	return seats, nil
}

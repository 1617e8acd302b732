package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railpass-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, reference_id, session_id, wallet_id, trip_id, fare, currency, status,
	provider_booking_id, failure_reason, created_at, confirmed_at`

// BookingRepo implements ports.BookingRepository.
type BookingRepo struct {
	pool Pool
}

// NewBookingRepo creates a new BookingRepo.
func NewBookingRepo(pool Pool) *BookingRepo {
	return &BookingRepo{pool: pool}
}

// Create inserts a booking. It is written before the gateway is called so a
// crash mid-request leaves a REQUESTING row behind for reconciliation.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.ReferenceID, b.SessionID, b.WalletID, b.TripID, b.Fare, b.Currency, b.Status,
		b.ProviderBookingID, b.FailureReason, b.CreatedAt, b.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// GetByReference returns the most recent booking for a session and client reference.
// Returns nil, nil if there is none.
func (r *BookingRepo) GetByReference(ctx context.Context, sessionID uuid.UUID, referenceID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE session_id = $1 AND reference_id = $2
		ORDER BY created_at DESC LIMIT 1`

	b := &domain.Booking{}
	if err := scanBooking(r.pool.QueryRow(ctx, query, sessionID, referenceID), b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by reference: %w", err)
	}
	return b, nil
}

// ListBySession returns the newest bookings of a session first.
func (r *BookingRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE session_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0, limit)
	for rows.Next() {
		var b domain.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// MarkFailed records a rejected booking. Only REQUESTING rows may fail.
func (r *BookingRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `UPDATE bookings SET status = $1, failure_reason = $2
		WHERE id = $3 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, domain.BookingStatusFailed, reason, id, domain.BookingStatusRequesting)
	if err != nil {
		return fmt.Errorf("mark booking failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking not in REQUESTING state: %s", id)
	}
	return nil
}

// MarkConfirmed records the provider's booking id within the deduction transaction.
func (r *BookingRepo) MarkConfirmed(ctx context.Context, tx pgx.Tx, id uuid.UUID, providerBookingID string, confirmedAt time.Time) error {
	query := `UPDATE bookings SET status = $1, provider_booking_id = $2, confirmed_at = $3
		WHERE id = $4 AND status = $5`

	tag, err := tx.Exec(ctx, query, domain.BookingStatusConfirmed, providerBookingID, confirmedAt, id, domain.BookingStatusRequesting)
	if err != nil {
		return fmt.Errorf("mark booking confirmed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking not in REQUESTING state: %s", id)
	}
	return nil
}

func scanBooking(row pgx.Row, b *domain.Booking) error {
	return row.Scan(
		&b.ID, &b.ReferenceID, &b.SessionID, &b.WalletID, &b.TripID, &b.Fare, &b.Currency, &b.Status,
		&b.ProviderBookingID, &b.FailureReason, &b.CreatedAt, &b.ConfirmedAt,
	)
}

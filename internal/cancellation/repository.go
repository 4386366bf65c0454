package cancellation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborcrew/boatmarket/internal/fraud"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed booking repository.
func NewPostgresRepository(db *pgxpool.Pool) BookingRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetBooking(ctx context.Context, id uuid.UUID) (*fraud.Booking, error) {
	b := &fraud.Booking{}
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, boat_id, start_date, end_date,
			adults, children, total_amount, status, created_at
		FROM bookings
		WHERE id = $1`, id).Scan(
		&b.ID, &b.UserID, &b.BoatID, &b.StartDate, &b.EndDate,
		&b.Adults, &b.Children, &b.TotalAmount, &b.Status, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query booking: %w", err)
	}
	return b, nil
}

func (r *postgresRepository) CancelBooking(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings SET status = 'cancelled'
		WHERE id = $1 AND status <> 'cancelled'`, id)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

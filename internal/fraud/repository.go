package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed fraud repository.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const profileColumns = `
	user_id, total_cancellations, total_bookings, cancellation_ratio,
	cancellations_last_24_hours, cancellations_last_7_days, cancellations_last_30_days,
	average_time_between_cancellations,
	distinct_boats_booked, distinct_boats_cancelled, boat_cancellation_distribution,
	average_adults, average_children, adult_children_ratio, passenger_variance,
	average_lead_time, lead_time_variance, short_lead_time_bookings,
	current_fraud_score, is_flagged, flag_reason,
	last_updated, last_booking_date, last_cancellation_date`

func (r *postgresRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*UserFraudProfile, error) {
	query := `SELECT` + profileColumns + ` FROM user_fraud_profiles WHERE user_id = $1`

	profile, err := scanProfile(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query fraud profile: %w", err)
	}
	return profile, nil
}

func (r *postgresRepository) UpsertProfile(ctx context.Context, p *UserFraudProfile) error {
	distribution, err := json.Marshal(p.BoatCancellationDistribution)
	if err != nil {
		return fmt.Errorf("encode boat distribution: %w", err)
	}

	query := `
		INSERT INTO user_fraud_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (user_id) DO UPDATE SET
			total_cancellations = EXCLUDED.total_cancellations,
			total_bookings = EXCLUDED.total_bookings,
			cancellation_ratio = EXCLUDED.cancellation_ratio,
			cancellations_last_24_hours = EXCLUDED.cancellations_last_24_hours,
			cancellations_last_7_days = EXCLUDED.cancellations_last_7_days,
			cancellations_last_30_days = EXCLUDED.cancellations_last_30_days,
			average_time_between_cancellations = EXCLUDED.average_time_between_cancellations,
			distinct_boats_booked = EXCLUDED.distinct_boats_booked,
			distinct_boats_cancelled = EXCLUDED.distinct_boats_cancelled,
			boat_cancellation_distribution = EXCLUDED.boat_cancellation_distribution,
			average_adults = EXCLUDED.average_adults,
			average_children = EXCLUDED.average_children,
			adult_children_ratio = EXCLUDED.adult_children_ratio,
			passenger_variance = EXCLUDED.passenger_variance,
			average_lead_time = EXCLUDED.average_lead_time,
			lead_time_variance = EXCLUDED.lead_time_variance,
			short_lead_time_bookings = EXCLUDED.short_lead_time_bookings,
			current_fraud_score = EXCLUDED.current_fraud_score,
			is_flagged = EXCLUDED.is_flagged,
			flag_reason = EXCLUDED.flag_reason,
			last_updated = EXCLUDED.last_updated,
			last_booking_date = EXCLUDED.last_booking_date,
			last_cancellation_date = EXCLUDED.last_cancellation_date`

	_, err = r.db.Exec(ctx, query,
		p.UserID, p.TotalCancellations, p.TotalBookings, p.CancellationRatio,
		p.CancellationsLast24Hours, p.CancellationsLast7Days, p.CancellationsLast30Days,
		p.AverageTimeBetweenCancellations,
		p.DistinctBoatsBooked, p.DistinctBoatsCancelled, distribution,
		p.AverageAdults, p.AverageChildren, p.AdultChildrenRatio, p.PassengerVariance,
		p.AverageLeadTime, p.LeadTimeVariance, p.ShortLeadTimeBookings,
		p.CurrentFraudScore, p.IsFlagged, p.FlagReason,
		p.LastUpdated, p.LastBookingDate, p.LastCancellationDate,
	)
	if err != nil {
		return fmt.Errorf("upsert fraud profile: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListFlaggedProfiles(ctx context.Context, limit, offset int) ([]*UserFraudProfile, error) {
	query := `SELECT` + profileColumns + `
		FROM user_fraud_profiles
		WHERE is_flagged = true
		ORDER BY current_fraud_score DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query flagged profiles: %w", err)
	}
	defer rows.Close()

	profiles := []*UserFraudProfile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flagged profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func (r *postgresRepository) GetStatistics(ctx context.Context) (*FraudStatistics, error) {
	stats := &FraudStatistics{}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_flagged),
			COUNT(*) FILTER (WHERE current_fraud_score > 70),
			COALESCE(AVG(current_fraud_score), 0)
		FROM user_fraud_profiles`).Scan(
		&stats.TotalProfiles,
		&stats.FlaggedProfiles,
		&stats.HighRiskProfiles,
		&stats.AverageFraudScore,
	)
	if err != nil {
		return nil, fmt.Errorf("query profile statistics: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_suspicious),
			COUNT(*) FILTER (WHERE cancellation_date > NOW() - INTERVAL '24 hours')
		FROM cancellation_records`).Scan(
		&stats.TotalCancellations,
		&stats.SuspiciousCancellations,
		&stats.CancellationsLast24Hours,
	)
	if err != nil {
		return nil, fmt.Errorf("query cancellation statistics: %w", err)
	}

	return stats, nil
}

const cancellationColumns = `
	id, user_id, booking_id, boat_id,
	cancellation_date, cancellation_reason, user_provided_reason,
	original_booking_data, time_since_booking, time_before_departure,
	ip_address, device_info, is_suspicious, fraud_score, created_at`

func (r *postgresRepository) CreateCancellation(ctx context.Context, rec *CancellationRecord) error {
	snapshot, err := json.Marshal(rec.OriginalBooking)
	if err != nil {
		return fmt.Errorf("encode booking snapshot: %w", err)
	}

	query := `
		INSERT INTO cancellation_records (` + cancellationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = r.db.Exec(ctx, query,
		rec.ID, rec.UserID, rec.BookingID, rec.BoatID,
		rec.CancellationDate, rec.CancellationReason, rec.UserProvidedReason,
		snapshot, rec.TimeSinceBooking, rec.TimeBeforeDeparture,
		rec.IPAddress, rec.DeviceInfo, rec.IsSuspicious, rec.FraudScore, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cancellation record: %w", err)
	}
	return nil
}

func (r *postgresRepository) MarkCancellationSuspicious(ctx context.Context, id uuid.UUID, fraudScore float64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE cancellation_records SET is_suspicious = true, fraud_score = $2 WHERE id = $1`,
		id, fraudScore)
	if err != nil {
		return fmt.Errorf("mark cancellation suspicious: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cancellation record %s not found", id)
	}
	return nil
}

func (r *postgresRepository) RecentCancellations(ctx context.Context, userID uuid.UUID, limit int) ([]*CancellationRecord, error) {
	query := `SELECT` + cancellationColumns + `
		FROM cancellation_records
		WHERE user_id = $1
		ORDER BY cancellation_date DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent cancellations: %w", err)
	}
	defer rows.Close()

	return collectCancellations(rows)
}

func (r *postgresRepository) AllCancellations(ctx context.Context, userID uuid.UUID) ([]*CancellationRecord, error) {
	query := `SELECT` + cancellationColumns + `
		FROM cancellation_records
		WHERE user_id = $1
		ORDER BY cancellation_date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cancellation history: %w", err)
	}
	defer rows.Close()

	return collectCancellations(rows)
}

func (r *postgresRepository) UserBookings(ctx context.Context, userID uuid.UUID) ([]*Booking, error) {
	query := `
		SELECT id, user_id, boat_id, start_date, end_date,
			adults, children, total_amount, status, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*Booking{}
	for rows.Next() {
		b := &Booking{}
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.BoatID, &b.StartDate, &b.EndDate,
			&b.Adults, &b.Children, &b.TotalAmount, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanProfile(row pgx.Row) (*UserFraudProfile, error) {
	p := &UserFraudProfile{}
	var distribution []byte

	err := row.Scan(
		&p.UserID, &p.TotalCancellations, &p.TotalBookings, &p.CancellationRatio,
		&p.CancellationsLast24Hours, &p.CancellationsLast7Days, &p.CancellationsLast30Days,
		&p.AverageTimeBetweenCancellations,
		&p.DistinctBoatsBooked, &p.DistinctBoatsCancelled, &distribution,
		&p.AverageAdults, &p.AverageChildren, &p.AdultChildrenRatio, &p.PassengerVariance,
		&p.AverageLeadTime, &p.LeadTimeVariance, &p.ShortLeadTimeBookings,
		&p.CurrentFraudScore, &p.IsFlagged, &p.FlagReason,
		&p.LastUpdated, &p.LastBookingDate, &p.LastCancellationDate,
	)
	if err != nil {
		return nil, err
	}

	if len(distribution) > 0 {
		if err := json.Unmarshal(distribution, &p.BoatCancellationDistribution); err != nil {
			return nil, fmt.Errorf("decode boat distribution: %w", err)
		}
	}
	return p, nil
}

func collectCancellations(rows pgx.Rows) ([]*CancellationRecord, error) {
	records := []*CancellationRecord{}
	for rows.Next() {
		rec := &CancellationRecord{}
		var snapshot []byte
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.BookingID, &rec.BoatID,
			&rec.CancellationDate, &rec.CancellationReason, &rec.UserProvidedReason,
			&snapshot, &rec.TimeSinceBooking, &rec.TimeBeforeDeparture,
			&rec.IPAddress, &rec.DeviceInfo, &rec.IsSuspicious, &rec.FraudScore, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cancellation record: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &rec.OriginalBooking); err != nil {
				return nil, fmt.Errorf("decode booking snapshot: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

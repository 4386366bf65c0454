package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBoatNotFound is returned when a boat has no owner on record.
var ErrBoatNotFound = errors.New("boat not found")

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed notifications repository.
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateNotification(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetOwnerNotifications(ctx context.Context, ownerID uuid.UUID, notifType string, limit, offset int) ([]*Notification, int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND type = $2`,
		ownerID, notifType).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, title, message, data, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		ownerID, notifType, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	result := []*Notification{}
	for rows.Next() {
		n := &Notification{}
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, 0, fmt.Errorf("decode notification data: %w", err)
			}
		}
		result = append(result, n)
	}
	return result, total, rows.Err()
}

func (r *postgresRepository) MarkNotificationAsRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (r *postgresRepository) GetBoatOwner(ctx context.Context, boatID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT owner_id FROM boats WHERE id = $1`, boatID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrBoatNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("query boat owner: %w", err)
	}
	return ownerID, nil
}

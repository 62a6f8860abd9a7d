package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearflip/resaleapi/internal/domain"
)

type notificationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB, logger *zap.Logger) *notificationRepository {
	return &notificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a notification. The unique (user_id, type, external_id)
// index turns duplicate prevention into a constraint; a conflicting insert
// is a no-op and reports created=false.
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (id, user_id, type, external_id, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, type, external_id) DO NOTHING
	`

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	data, err := json.Marshal(n.Data)
	if err != nil {
		return false, err
	}

	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.ExternalID, data, n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification", zap.Error(err))
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	query := `
		SELECT id, user_id, type, external_id, data, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var data []byte

		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.ExternalID, &data, &n.CreatedAt); err != nil {
			return nil, err
		}

		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, err
			}
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

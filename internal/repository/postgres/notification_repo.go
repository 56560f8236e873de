package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/ovcare-portal/internal/domain"
)

func (r *PortalRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, user_type, message, type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at`,
		n.UserID, string(n.UserType), n.Message, string(n.Type),
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create notification: %w", err)
	}
	return nil
}

func (r *PortalRepo) ListNotifications(ctx context.Context, userID int64, role domain.Role, limit int) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, user_type, message, type, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND user_type = $2
		ORDER BY created_at DESC
		LIMIT $3`, userID, string(role), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query notifications: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var userType, typ string
		if err := rows.Scan(&n.ID, &n.UserID, &userType, &n.Message, &typ, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan notification: %w", err)
		}
		n.UserType = domain.Role(userType)
		n.Type = domain.NotificationType(typ)
		results = append(results, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

func (r *PortalRepo) CountUnread(ctx context.Context, userID int64, role domain.Role) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND user_type = $2 AND is_read = FALSE`, userID, string(role)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count notifications: %w", err)
	}
	return n, nil
}

// MarkRead помечает уведомление прочитанным только если оно принадлежит пользователю
func (r *PortalRepo) MarkRead(ctx context.Context, id, userID int64, role domain.Role) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2 AND user_type = $3`, id, userID, string(role))
	if err != nil {
		return fmt.Errorf("postgres: failed to mark notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

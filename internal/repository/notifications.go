package repository

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

const notificationColumns = `id, recipient_id, kind, related_application_id, status, dedupe_key, read, created_at`

func scanNotification(row scanner) (*domain.Notification, error) {
	var n domain.Notification
	dst := []any{
		&n.ID,
		&n.RecipientID,
		&n.Kind,
		&n.RelatedApplicationID,
		&n.Status,
		&n.DedupeKey,
		&n.Read,
		&n.CreatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return &n, nil
}

func (t *pgTx) InsertNotification(ctx context.Context, n *domain.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (
			recipient_id,
			kind,
			related_application_id,
			status,
			dedupe_key,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (dedupe_key) DO NOTHING
		RETURNING id
	`

	params := []any{
		n.RecipientID,
		string(n.Kind),
		n.RelatedApplicationID,
		string(n.Status),
		n.DedupeKey,
		n.CreatedAt,
	}
	if err := t.tx.QueryRowContext(ctx, query, params...).Scan(&n.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (t *pgTx) MarkNotificationRead(ctx context.Context, id int64, recipientID string) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notificationColumns

	n, err := scanNotification(t.tx.QueryRowContext(ctx, query, id, recipientID))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// tell a missing notification apart from someone else's
	var owner string
	if err := t.tx.QueryRowContext(ctx, `SELECT recipient_id FROM notifications WHERE id = $1`, id).Scan(&owner); err != nil {
		return nil, notFound(err)
	}
	return nil, domain.ErrNotAuthorized
}

func (r *Repository) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY id DESC`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *Repository) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT read`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var count int
	if err := r.dbpool.QueryRowContext(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

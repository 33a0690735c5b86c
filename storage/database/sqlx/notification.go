package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
	"github.com/foe05/HGMH-App/core/notification"
)

type notificationRow struct {
	ID         int       `db:"id"`
	UserID     int       `db:"user_id"`
	Title      string    `db:"title"`
	Message    string    `db:"message"`
	Type       string    `db:"type"`
	DeepLink   string    `db:"deep_link"`
	IsRead     bool      `db:"is_read"`
	ReceivedAt time.Time `db:"received_at"`
}

type notificationRepository struct {
	db core.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db core.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	query, args, err := builder(repo.db).
		Insert("notifications").
		Columns("user_id", "title", "message", "type", "deep_link", "is_read", "received_at").
		Values(n.UserID, n.Title, n.Message, n.Type, n.DeepLink, n.IsRead, n.ReceivedAt.UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "building query")
	}
	if err = repo.db.QueryRowxContext(ctx, query, args...).Scan(&n.ID); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, userID, limit int) ([]notification.Notification, error) {
	query, args, err := builder(repo.db).
		Select("id", "user_id", "title", "message", "type", "deep_link", "is_read", "received_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("received_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []notificationRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifications := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifications = append(notifications, notification.Notification{
			ID:         r.ID,
			UserID:     r.UserID,
			Title:      r.Title,
			Message:    r.Message,
			Type:       r.Type,
			DeepLink:   r.DeepLink,
			IsRead:     r.IsRead,
			ReceivedAt: r.ReceivedAt.UTC(),
		})
	}
	return notifications, nil
}

func (repo notificationRepository) MarkAsRead(ctx context.Context, userID, id int) error {
	query, args, err := builder(repo.db).
		Update("notifications").
		Set("is_read", true).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "marking notification as read")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notification.ErrNotFound
	}
	return nil
}

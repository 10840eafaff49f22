package repository

import (
	"context"
	"time"

	"jobflow/models"
)

type NotificationRepository struct {
	base
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	start := time.Now()
	return r.done("notifications.create", start, r.db.WithContext(ctx).Create(n).Error)
}

// MarkDelivered stores which channels the notification went out on.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, n *models.Notification) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Model(n).Updates(map[string]any{
		"email_sent": n.EmailSent,
		"push_sent":  n.PushSent,
	}).Error
	return r.done("notifications.mark_delivered", start, err)
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	start := time.Now()
	var list []models.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	err := q.Order("created_at desc").Order("id desc").Limit(100).Find(&list).Error
	return list, r.done("notifications.list", start, err)
}

// MarkRead marks one of the user's notifications read. It returns
// ErrNotFound when the notification does not belong to userID.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint, at time.Time) error {
	start := time.Now()
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrNotFound
	}
	r.metrics.ObserveQuery("notifications.mark_read", start, res.Error)
	return err
}

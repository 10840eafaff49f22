// Package notifications renders and delivers user notifications. Every
// notification is stored in-app; email and push delivery depend on the
// notification type.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobflow/metrics"
	"jobflow/models"
)

var ErrUnknownType = errors.New("unknown notification type")

// Sender delivers a stored notification over one channel.
type Sender interface {
	Send(ctx context.Context, to *models.User, n *models.Notification) error
}

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	MarkDelivered(ctx context.Context, n *models.Notification) error
}

type Manager struct {
	store     Store
	email     Sender
	push      Sender
	log       *slog.Logger
	metrics   *metrics.Metrics
	templates map[Type]compiled
}

type Option func(*Manager)

func WithEmail(s Sender) Option {
	return func(m *Manager) { m.email = s }
}

func WithPush(s Sender) Option {
	return func(m *Manager) { m.push = s }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(store Store, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		log:       log,
		templates: compile(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Render returns the title and message for typ filled with data.
func (m *Manager) Render(typ Type, data any) (title, message string, err error) {
	tmpl, ok := m.templates[typ]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	var tb, mb strings.Builder
	if err := tmpl.title.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("rendering %s title: %w", typ, err)
	}
	if err := tmpl.body.Execute(&mb, data); err != nil {
		return "", "", fmt.Errorf("rendering %s message: %w", typ, err)
	}
	return tb.String(), strings.TrimSpace(mb.String()), nil
}

// Notify stores a notification for user and sends it on the channels of
// typ. Delivery failures are logged; only rendering and storage errors are
// returned.
func (m *Manager) Notify(ctx context.Context, user *models.User, typ Type, data any) (*models.Notification, error) {
	title, message, err := m.Render(typ, data)
	if err != nil {
		return nil, err
	}
	tmpl := m.templates[typ]

	n := &models.Notification{
		UserID:   user.ID,
		Type:     string(typ),
		Severity: tmpl.severity,
		Title:    title,
		Message:  message,
	}
	if err := m.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("storing notification: %w", err)
	}
	m.metrics.NotificationSent("in_app")

	if tmpl.email && m.email != nil {
		n.EmailSent = m.deliver(ctx, "email", m.email, user, n)
	}
	if tmpl.push && m.push != nil {
		n.PushSent = m.deliver(ctx, "push", m.push, user, n)
	}
	if n.EmailSent || n.PushSent {
		if err := m.store.MarkDelivered(ctx, n); err != nil {
			m.log.Warn("failed to record notification delivery", "notification_id", n.ID, "error", err)
		}
	}
	return n, nil
}

func (m *Manager) deliver(ctx context.Context, channel string, s Sender, user *models.User, n *models.Notification) bool {
	if err := s.Send(ctx, user, n); err != nil {
		m.log.Warn("notification delivery failed",
			"channel", channel,
			"user_id", user.ID,
			"type", n.Type,
			"error", err)
		return false
	}
	m.metrics.NotificationSent(channel)
	return true
}

// LogSender writes notifications to the log. It stands in for a real mail
// or push gateway.
type LogSender struct {
	Channel string
	Log     *slog.Logger
}

func (s LogSender) Send(_ context.Context, to *models.User, n *models.Notification) error {
	s.Log.Info("notification sent",
		"channel", s.Channel,
		"user", to.Username,
		"email", to.Email,
		"type", n.Type,
		"title", n.Title)
	return nil
}

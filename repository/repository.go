// Package repository wraps the gorm models with context-aware queries.
// Every query is timed into the Prometheus metrics.
package repository

import (
	"context"
	"errors"
	"time"

	"jobflow/metrics"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type base struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// done records a finished query and maps gorm's not-found error.
func (b base) done(op string, start time.Time, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b.metrics.ObserveQuery(op, start, nil)
		return ErrNotFound
	}
	b.metrics.ObserveQuery(op, start, err)
	return err
}

// Repositories bundles every repository over one connection.
type Repositories struct {
	db      *gorm.DB
	metrics *metrics.Metrics

	Users         *UserRepository
	TimeEntries   *TimeEntryRepository
	Snapshots     *SnapshotRepository
	Invites       *InviteRepository
	Notifications *NotificationRepository
}

// New builds all repositories. m may be nil.
func New(db *gorm.DB, m *metrics.Metrics) *Repositories {
	b := base{db: db, metrics: m}
	return &Repositories{
		db:            db,
		metrics:       m,
		Users:         &UserRepository{base: b},
		TimeEntries:   &TimeEntryRepository{base: b},
		Snapshots:     &SnapshotRepository{base: b},
		Invites:       &InviteRepository{base: b},
		Notifications: &NotificationRepository{base: b},
	}
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx, r.metrics))
	})
}

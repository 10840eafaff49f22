package repository

import (
	"context"
	"time"

	"jobflow/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TimeEntryRepository struct {
	base
}

func (r *TimeEntryRepository) Create(ctx context.Context, entry *models.TimeEntry) error {
	start := time.Now()
	return r.done("time_entries.create", start, r.db.WithContext(ctx).Create(entry).Error)
}

// CreateBatch inserts entries in one transaction.
func (r *TimeEntryRepository) CreateBatch(ctx context.Context, entries []models.TimeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entries).Error
	})
	return r.done("time_entries.create_batch", start, err)
}

func (r *TimeEntryRepository) Save(ctx context.Context, entry *models.TimeEntry) error {
	start := time.Now()
	return r.done("time_entries.save", start, r.db.WithContext(ctx).Omit(clause.Associations).Save(entry).Error)
}

func (r *TimeEntryRepository) FindByID(ctx context.Context, id uint) (*models.TimeEntry, error) {
	start := time.Now()
	var entry models.TimeEntry
	err := r.db.WithContext(ctx).Preload("User").First(&entry, id).Error
	if err = r.done("time_entries.find_by_id", start, err); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindOpen returns the user's running entry, or ErrNotFound.
func (r *TimeEntryRepository) FindOpen(ctx context.Context, userID uint) (*models.TimeEntry, error) {
	start := time.Now()
	var entry models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_out IS NULL", userID).
		Order("clock_in desc").
		First(&entry).Error
	if err = r.done("time_entries.find_open", start, err); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LastClosedBefore returns the user's latest closed entry that clocked out
// at or before t, or ErrNotFound.
func (r *TimeEntryRepository) LastClosedBefore(ctx context.Context, userID uint, t time.Time) (*models.TimeEntry, error) {
	start := time.Now()
	var entry models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_out IS NOT NULL AND clock_out <= ?", userID, t).
		Order("clock_out desc").
		First(&entry).Error
	if err = r.done("time_entries.last_closed", start, err); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListForUserBetween returns entries clocked in within [from, to].
func (r *TimeEntryRepository) ListForUserBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.TimeEntry, error) {
	start := time.Now()
	var entries []models.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND clock_in >= ? AND clock_in <= ?", userID, from, to).
		Order("clock_in").
		Find(&entries).Error
	return entries, r.done("time_entries.list_for_user", start, err)
}

// ListPending returns unapproved closed entries of userIDs, or of every
// user when userIDs is nil.
func (r *TimeEntryRepository) ListPending(ctx context.Context, userIDs []uint) ([]models.TimeEntry, error) {
	start := time.Now()
	var entries []models.TimeEntry
	q := r.db.WithContext(ctx).Preload("User").
		Where("approved = ? AND clock_out IS NOT NULL", false)
	if userIDs != nil {
		q = q.Where("user_id IN ?", userIDs)
	}
	err := q.Order("clock_in").Find(&entries).Error
	return entries, r.done("time_entries.list_pending", start, err)
}

func (r *TimeEntryRepository) Approve(ctx context.Context, entry *models.TimeEntry, approverID uint, at time.Time) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Model(entry).Updates(map[string]any{
		"approved":    true,
		"approved_by": approverID,
		"approved_at": at,
	}).Error
	if err == nil {
		entry.Approved = true
		entry.ApprovedBy = &approverID
		entry.ApprovedAt = &at
	}
	return r.done("time_entries.approve", start, err)
}

// Reject soft-deletes the entry so it no longer counts anywhere.
func (r *TimeEntryRepository) Reject(ctx context.Context, entry *models.TimeEntry) error {
	start := time.Now()
	return r.done("time_entries.reject", start, r.db.WithContext(ctx).Delete(entry).Error)
}

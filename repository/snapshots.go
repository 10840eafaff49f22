package repository

import (
	"context"
	"time"

	"jobflow/models"
	"jobflow/timetracking"

	"gorm.io/gorm/clause"
)

var _ timetracking.BalanceLookup = (*SnapshotRepository)(nil)

// SnapshotRepository stores weekly balances. Together with the
// compensation entries they form the compensation ledger.
type SnapshotRepository struct {
	base
}

// Upsert stores the snapshot, replacing an existing one for the same user
// and period start.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *models.BalanceSnapshot) error {
	start := time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "period_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "period_end", "regular_hours", "overtime_hours",
			"compensation_hours", "used_compensation_hours", "shortage_hours",
			"expected_hours", "actual_hours", "break_hours", "weekend_hours",
			"evening_hours", "night_hours", "holiday_hours",
			"auto_break_deducted", "compensation_forfeited",
		}),
	}).Create(s).Error
	return r.done("snapshots.upsert", start, err)
}

// Find returns the user's snapshot starting at periodStart, or ErrNotFound.
func (r *SnapshotRepository) Find(ctx context.Context, userID uint, periodStart time.Time) (*models.BalanceSnapshot, error) {
	start := time.Now()
	var snap models.BalanceSnapshot
	err := r.db.WithContext(ctx).Where("user_id = ? AND period_start = ?", userID, periodStart).First(&snap).Error
	if err = r.done("snapshots.find", start, err); err != nil {
		return nil, err
	}
	return &snap, nil
}

// History returns snapshots of userIDs that start before t, newest first.
// A nil userIDs selects every user.
func (r *SnapshotRepository) History(ctx context.Context, userIDs []uint, before time.Time) ([]models.BalanceSnapshot, error) {
	start := time.Now()
	var snaps []models.BalanceSnapshot
	q := r.db.WithContext(ctx).Where("period_start < ?", before)
	if userIDs != nil {
		q = q.Where("user_id IN ?", userIDs)
	}
	err := q.Order("period_start desc").Find(&snaps).Error
	return snaps, r.done("snapshots.history", start, err)
}

// EarnedCompensation sums the compensation credited by snapshots.
func (r *SnapshotRepository) EarnedCompensation(ctx context.Context, userID uint) (float64, error) {
	start := time.Now()
	var earned float64
	err := r.db.WithContext(ctx).Model(&models.BalanceSnapshot{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(compensation_hours), 0)").
		Scan(&earned).Error
	return earned, r.done("snapshots.earned", start, err)
}

// AvailableCompensation is earned compensation minus every requested or
// approved COMPENSATION_USED entry. Rejected entries are soft-deleted and
// drop out.
func (r *SnapshotRepository) AvailableCompensation(ctx context.Context, userID uint) (float64, error) {
	earned, err := r.EarnedCompensation(ctx, userID)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	var used float64
	err = r.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Where("user_id = ? AND work_type = ?", userID, models.WorkCompensationUsed).
		Select("COALESCE(SUM(calculated_hours), 0)").
		Scan(&used).Error
	if err = r.done("snapshots.used", start, err); err != nil {
		return 0, err
	}
	return earned - used, nil
}

package models

import (
	"time"
)

// BalanceSnapshot stores a computed weekly time balance for one user. The
// weekly snapshots form the compensation ledger and the shortage history.
type BalanceSnapshot struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	UserID                uint      `gorm:"not null;uniqueIndex:idx_snapshot_user_period" json:"user_id"`
	PeriodStart           time.Time `gorm:"not null;uniqueIndex:idx_snapshot_user_period" json:"period_start"`
	PeriodEnd             time.Time `gorm:"not null" json:"period_end"`
	RegularHours          float64   `json:"regular_hours"`
	OvertimeHours         float64   `json:"overtime_hours"`
	CompensationHours     float64   `json:"compensation_hours"`
	UsedCompensationHours float64   `json:"used_compensation_hours"`
	ShortageHours         float64   `json:"shortage_hours"`
	ExpectedHours         float64   `json:"expected_hours"`
	ActualHours           float64   `json:"actual_hours"`
	BreakHours            float64   `json:"break_hours"`
	WeekendHours          float64   `json:"weekend_hours"`
	EveningHours          float64   `json:"evening_hours"`
	NightHours            float64   `json:"night_hours"`
	HolidayHours          float64   `json:"holiday_hours"`
	AutoBreakDeducted     float64   `json:"auto_break_deducted"`
	// CompensationForfeited is earned compensation dropped by the balance cap.
	CompensationForfeited float64 `json:"compensation_forfeited"`
}

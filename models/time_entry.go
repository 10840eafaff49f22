package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkType string

const (
	WorkRegular          WorkType = "REGULAR"
	WorkOvertime         WorkType = "OVERTIME"
	WorkCompensationUsed WorkType = "COMPENSATION_USED"
	WorkSick             WorkType = "SICK"
	WorkVacation         WorkType = "VACATION"
)

// TimeEntry is one worked or planned session. An entry without ClockOut is
// still running.
type TimeEntry struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	User              *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ClockIn           time.Time      `gorm:"not null;index" json:"clock_in"`
	ClockOut          *time.Time     `json:"clock_out,omitempty"`
	BreakStart        *time.Time     `json:"break_start,omitempty"`
	BreakEnd          *time.Time     `json:"break_end,omitempty"`
	TotalBreakMinutes int            `gorm:"default:0" json:"total_break_minutes"`
	WorkType          WorkType       `gorm:"not null;size:30;default:REGULAR" json:"work_type"`
	Description       string         `gorm:"size:500" json:"description"`

	// Cached classification, written when the entry is closed.
	IsWeekend          bool    `json:"is_weekend"`
	IsEvening          bool    `json:"is_evening"`
	IsNight            bool    `json:"is_night"`
	IsHoliday          bool    `json:"is_holiday"`
	AutoBreakApplied   bool    `json:"auto_break_applied"`
	CalculatedHours    float64 `json:"calculated_hours"`
	CompensationEarned float64 `json:"compensation_earned"`

	// Set on entries generated from a bulk compensation request.
	CompensationType string `gorm:"size:20" json:"compensation_type,omitempty"`
	BatchID          string `gorm:"size:36;index" json:"batch_id,omitempty"`

	Approved   bool       `gorm:"default:false" json:"approved"`
	ApprovedBy *uint      `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
}

func (e *TimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}

// GrossMinutes is the clock-in to clock-out span, or 0 for open entries.
func (e *TimeEntry) GrossMinutes() float64 {
	if e.ClockOut == nil {
		return 0
	}
	return e.ClockOut.Sub(e.ClockIn).Minutes()
}

package models

import (
	"time"

	"jobflow/permissions"

	"gorm.io/gorm"
)

type User struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	DeletedAt            gorm.DeletedAt   `gorm:"index" json:"-"`
	Username             string           `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName             string           `gorm:"not null;size:200" json:"full_name"`
	Email                string           `gorm:"size:200" json:"email"`
	PasswordHash         string           `gorm:"not null" json:"-"`
	Role                 permissions.Role `gorm:"not null;size:20" json:"role"`
	MustChangePassword   bool             `gorm:"default:true" json:"must_change_password"`
	Active               bool             `gorm:"default:true" json:"active"`
	TeamID               *uint            `gorm:"index" json:"team_id"`
	Team                 *Team            `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	ContractHoursPerWeek *float64         `json:"contract_hours_per_week,omitempty"`
	TimeEntries          []TimeEntry      `gorm:"foreignKey:UserID" json:"time_entries,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == permissions.RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role == permissions.RoleManager
}

// Can reports whether the user's role grants p.
func (u *User) Can(p permissions.Permission) bool {
	return permissions.Can(u.Role, p)
}

// WeeklyContractHours returns the user's contract hours, or 0 when unset.
func (u *User) WeeklyContractHours() float64 {
	if u.ContractHoursPerWeek == nil {
		return 0
	}
	return *u.ContractHoursPerWeek
}

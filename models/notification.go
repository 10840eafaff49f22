package models

import (
	"time"
)

type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"not null;size:40" json:"type"`
	Severity  string     `gorm:"size:20" json:"severity"`
	Title     string     `gorm:"not null;size:200" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	EmailSent bool       `json:"email_sent"`
	PushSent  bool       `json:"push_sent"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage represents a single message in a named chat room.
// Rooms have no table of their own: a room exists exactly when at
// least one message carries its name.
type ChatMessage struct {
	gorm.Model
	SenderID uint `gorm:"not null;index"`
	Sender   User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;"`

	Content   string    `gorm:"size:1000;not null"`
	RoomName  string    `gorm:"size:50;not null;default:'general';index"`
	Timestamp time.Time `gorm:"not null;index"`
}

// BeforeCreate stamps the message time when the caller left it zero.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered player account.
type User struct {
	gorm.Model
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastLogin    *time.Time

	// Guides this user has liked. Reverse side of Guide.LikedBy.
	LikedGuides []*Guide `gorm:"many2many:guide_likes;"`
}

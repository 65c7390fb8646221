package models

import (
	"math"

	"gorm.io/gorm"
)

// UserProfile holds extended, game-facing stats for a user.
// Declared and migrated but not exposed by any endpoint yet.
type UserProfile struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null"`
	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`

	Avatar      string `gorm:"size:500"`
	Bio         string `gorm:"size:500"`
	Level       uint   `gorm:"not null;default:1"`
	Experience  uint   `gorm:"not null;default:0"`
	GamesPlayed uint   `gorm:"not null;default:0"`
	Wins        uint   `gorm:"not null;default:0"`
}

// WinRate returns the win percentage rounded to two decimals,
// or 0 when no games have been played.
func (p *UserProfile) WinRate() float64 {
	if p.GamesPlayed == 0 {
		return 0
	}
	rate := float64(p.Wins) / float64(p.GamesPlayed) * 100
	return math.Round(rate*100) / 100
}

package models

import (
	"strings"

	"gorm.io/gorm"
)

// GuideCategory enumerates the fixed set of guide categories.
type GuideCategory string

const (
	CategoryBeginner  GuideCategory = "beginner"
	CategoryStrategy  GuideCategory = "strategy"
	CategoryAdvanced  GuideCategory = "advanced"
	CategoryCharacter GuideCategory = "character"
	CategoryEquipment GuideCategory = "equipment"
	CategoryTeam      GuideCategory = "team"
	CategoryOther     GuideCategory = "other"
)

// ValidCategory reports whether s is one of the fixed guide categories.
func ValidCategory(s string) bool {
	switch GuideCategory(s) {
	case CategoryBeginner, CategoryStrategy, CategoryAdvanced,
		CategoryCharacter, CategoryEquipment, CategoryTeam, CategoryOther:
		return true
	}
	return false
}

// Guide represents a user-authored strategy article.
//
// Title carries a real unique index: the storage layer, not an
// application pre-check, is what guarantees no two guides share a
// title under concurrent submissions.
type Guide struct {
	gorm.Model
	Title      string        `gorm:"size:200;uniqueIndex;not null"`
	Content    string        `gorm:"type:text;not null"`
	Category   GuideCategory `gorm:"size:20;not null;default:'other';index"`
	Tags       string        `gorm:"size:500"` // comma-separated
	Views      uint          `gorm:"not null;default:0"`
	CoverImage string        `gorm:"size:500"`

	AuthorID uint `gorm:"not null;index"`
	Author   User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`

	LikedBy []*User `gorm:"many2many:guide_likes;"`
}

// TagList splits the comma-separated Tags field into trimmed,
// non-empty tag strings.
func (g *Guide) TagList() []string {
	if g.Tags == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(g.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

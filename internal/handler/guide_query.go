package handler

import (
	"strings"
	"time"

	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"gorm.io/gorm"
)

// createCooldown is the rolling window within which an author may not
// publish a second guide.
const createCooldown = 60 * time.Second

// guideOrderings is the allow-list of sort keys. Anything else falls
// back to the default (newest first) rather than erroring.
var guideOrderings = map[string]string{
	"-created_at": "created_at DESC",
	"created_at":  "created_at ASC",
	"title":       "title ASC",
	"-title":      "title DESC",
}

// applyGuideOrdering applies an allow-listed sort key to the query.
func applyGuideOrdering(db *gorm.DB, sort string) *gorm.DB {
	order, ok := guideOrderings[sort]
	if !ok {
		order = "created_at DESC"
	}
	return db.Order(order)
}

// applyGuideSearch filters guides whose title, content or tags contain
// the query, case-insensitively. Used by the API surface.
func applyGuideSearch(db *gorm.DB, q string) *gorm.DB {
	if q == "" {
		return db
	}
	pattern := "%" + strings.ToLower(q) + "%"
	return db.Where(
		"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(tags) LIKE ?",
		pattern, pattern, pattern,
	)
}

// applySiteSearch filters guides whose title, content or author
// username contain the query. The site's home page searches by author
// instead of tags; the two surfaces deliberately differ here.
//
// The select clause is left untouched so the same filter serves both
// count and row queries. Row queries add Select("guides.*") themselves
// to keep the joined column names unambiguous.
func applySiteSearch(db *gorm.DB, q string) *gorm.DB {
	if q == "" {
		return db
	}
	pattern := "%" + strings.ToLower(q) + "%"
	return db.Joins("JOIN users ON users.id = guides.author_id").Where(
		"LOWER(guides.title) LIKE ? OR LOWER(guides.content) LIKE ? OR LOWER(users.username) LIKE ?",
		pattern, pattern, pattern,
	)
}

// applyCategoryFilter narrows to one category. "all" (or empty) is a
// sentinel that bypasses the filter.
func applyCategoryFilter(db *gorm.DB, category string) *gorm.DB {
	if category == "" || category == "all" {
		return db
	}
	return db.Where("category = ?", category)
}

// validateGuideFields checks the length and shape constraints on a
// guide submission and returns field-keyed error messages.
func validateGuideFields(title, content, category, tags string) map[string]string {
	errs := make(map[string]string)

	if n := len([]rune(title)); n < 5 {
		errs["title"] = "Title is too short, at least 5 characters required"
	} else if n > 200 {
		errs["title"] = "Title is too long, at most 200 characters allowed"
	}

	if n := len([]rune(content)); n < 20 {
		errs["content"] = "Content is too short, at least 20 characters required"
	} else if n > 10000 {
		errs["content"] = "Content is too long, at most 10000 characters allowed"
	}

	if !models.ValidCategory(category) {
		errs["category"] = "Invalid category"
	}

	if tags != "" {
		var tagList []string
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tagList = append(tagList, t)
			}
		}
		if len(tagList) > 10 {
			errs["tags"] = "At most 10 tags allowed"
		} else {
			for _, t := range tagList {
				if len([]rune(t)) > 20 {
					errs["tags"] = "Tag \"" + t + "\" is too long, at most 20 characters allowed"
					break
				}
			}
		}
	}

	return errs
}

// titleTaken reports whether another guide already uses the title.
// This pre-check produces the friendly field error; the unique index
// on guides.title is what actually guarantees uniqueness under races.
func titleTaken(db *gorm.DB, title string, excludeID uint) bool {
	var count int64
	q := db.Model(&models.Guide{}).Where("title = ?", title)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	q.Count(&count)
	return count > 0
}

// authorOnCooldown reports whether the author published a guide within
// the rolling cooldown window.
func authorOnCooldown(db *gorm.DB, authorID uint) bool {
	var count int64
	db.Model(&models.Guide{}).
		Where("author_id = ? AND created_at >= ?", authorID, time.Now().Add(-createCooldown)).
		Count(&count)
	return count > 0
}

// incrementGuideViews bumps the view counter atomically in the store,
// so concurrent viewers never lose an increment.
func incrementGuideViews(guideID uint) error {
	return database.DB.Model(&models.Guide{}).
		Where("id = ?", guideID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// likedGuideIDs returns the set of guide IDs the user has liked among
// the given candidates.
func likedGuideIDs(db *gorm.DB, userID uint, guideIDs []uint) map[uint]bool {
	liked := make(map[uint]bool)
	if userID == 0 || len(guideIDs) == 0 {
		return liked
	}
	var rows []struct{ GuideID uint }
	db.Table("guide_likes").
		Select("guide_id").
		Where("user_id = ? AND guide_id IN ?", userID, guideIDs).
		Scan(&rows)
	for _, r := range rows {
		liked[r.GuideID] = true
	}
	return liked
}

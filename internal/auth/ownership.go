package auth

import "quantumspacewar/backend/internal/models"

// CanModifyGuide reports whether the user may mutate or delete the
// guide. Reads are open to everyone; writes only to the author.
// Callers collapse a false result into not-found so that ownership is
// never distinguishable from absence.
func CanModifyGuide(userID uint, guide *models.Guide) bool {
	return guide.AuthorID == userID
}

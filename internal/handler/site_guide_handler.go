package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"quantumspacewar/backend/internal/auth"
	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// sitePageSize is the fixed page size of the server-rendered lists.
const sitePageSize = 10

// SiteGuideInput is the form payload for publishing a guide.
type SiteGuideInput struct {
	Title      string `json:"title" form:"title" binding:"required"`
	Content    string `json:"content" form:"content" binding:"required"`
	Category   string `json:"category" form:"category" binding:"required"`
	Tags       string `json:"tags" form:"tags"`
	CoverImage string `json:"cover_image" form:"cover_image"`
}

// viewedSessionKey marks a guide as already counted for this session.
func viewedSessionKey(guideID uint) string {
	return fmt.Sprintf("viewed_guide_%d", guideID)
}

// SiteHome serves the guide list for the site: search across title,
// content and author username, allow-listed sort with silent fallback,
// ten guides per page, out-of-range pages clamped instead of erroring.
func SiteHome(c *gin.Context) {
	viewerID := viewerIDFromContext(c)
	searchQuery := c.Query("q")
	sortBy := c.DefaultQuery("sort", "-created_at")

	base := database.DB.Model(&models.Guide{})
	base = applySiteSearch(base, searchQuery)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count guides"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	page = clampPage(page, totalItems, sitePageSize)

	var guides []models.Guide
	query := database.DB.Preload("Author").Preload("LikedBy")
	query = applySiteSearch(query.Model(&models.Guide{}), searchQuery).Select("guides.*")
	query = applyGuideOrdering(query, sortBy)
	if err := query.Offset((page - 1) * sitePageSize).Limit(sitePageSize).Find(&guides).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guides"})
		return
	}

	ids := make([]uint, 0, len(guides))
	for _, g := range guides {
		ids = append(ids, g.ID)
	}
	likedSet := likedGuideIDs(database.DB, viewerID, ids)

	responses := make([]GuideResponse, 0, len(guides))
	for _, g := range guides {
		responses = append(responses, newGuideResponse(g, viewerID, likedSet))
	}

	c.JSON(http.StatusOK, gin.H{
		"guides":       responses,
		"search_query": searchQuery,
		"sort_by":      sortBy,
		"total_count":  totalItems,
		"page":         page,
		"page_size":    sitePageSize,
		"notices":      takeNotices(c),
	})
}

// SiteGuideDetail serves one guide plus up to five more by the same
// author. The view counter increments at most once per session per
// guide, tracked by a session marker; repeat visits in the same
// session do not count.
func SiteGuideDetail(c *gin.Context) {
	viewerID := viewerIDFromContext(c)
	id, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	if err := database.DB.Preload("Author").Preload("LikedBy").First(&guide, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found", "redirect": "/site/guides"})
		return
	}

	session := sessions.Default(c)
	markerKey := viewedSessionKey(guide.ID)
	if session.Get(markerKey) == nil {
		if err := incrementGuideViews(guide.ID); err == nil {
			guide.Views++
			session.Set(markerKey, true)
			_ = session.Save()
		}
	}

	var related []models.Guide
	database.DB.Preload("Author").
		Where("author_id = ? AND id <> ?", guide.AuthorID, guide.ID).
		Order("created_at DESC").
		Limit(5).
		Find(&related)

	relatedResponses := make([]GuideResponse, 0, len(related))
	for _, g := range related {
		relatedResponses = append(relatedResponses, newGuideResponse(g, viewerID, nil))
	}

	c.JSON(http.StatusOK, gin.H{
		"guide":          newGuideDetailResponse(guide, viewerID),
		"related_guides": relatedResponses,
	})
}

// SiteCreateGuide publishes a guide from the site form. A rejected
// submission echoes the input back so the user's work is preserved.
func SiteCreateGuide(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input SiteGuideInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := validateGuideFields(input.Title, input.Content, input.Category, input.Tags)
	if titleTaken(database.DB, input.Title, 0) {
		errs["title"] = "A guide with this title already exists"
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs, "form": input})
		return
	}

	if authorOnCooldown(database.DB, userID.(uint)) {
		// Soft rejection: keep the submitted fields so the form can be
		// re-presented with the user's input intact.
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Posting too frequently, please try again later",
			"form":  input,
		})
		return
	}

	guide := models.Guide{
		Title:      input.Title,
		Content:    input.Content,
		Category:   models.GuideCategory(input.Category),
		Tags:       input.Tags,
		CoverImage: input.CoverImage,
		AuthorID:   userID.(uint),
	}
	if err := database.DB.Create(&guide).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{"title": "A guide with this title already exists"},
			"form":   input,
		})
		return
	}

	addNotice(c, fmt.Sprintf("Guide %q published!", guide.Title))
	c.JSON(http.StatusCreated, gin.H{
		"id":       guide.ID,
		"redirect": fmt.Sprintf("/site/guides/%d", guide.ID),
	})
}

// SiteDeleteGuide deletes one of the caller's guides. A guide that is
// missing or owned by someone else yields the same not-found notice,
// so existence is never leaked.
func SiteDeleteGuide(c *gin.Context) {
	userID, _ := c.Get("userID")
	id, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	err := database.DB.First(&guide, id).Error
	if err != nil || !auth.CanModifyGuide(userID.(uint), &guide) {
		addNotice(c, "Guide not found or no permission to delete")
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found", "redirect": "/site/my-guides"})
		return
	}

	// Hard delete, matching the API surface: the title must become
	// available again.
	title := guide.Title
	if err := database.DB.Unscoped().Select("LikedBy").Delete(&guide).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guide"})
		return
	}

	addNotice(c, fmt.Sprintf("Guide %q deleted", title))
	c.JSON(http.StatusOK, gin.H{"redirect": "/site/my-guides"})
}

// SiteMyGuides lists the caller's guides, newest first.
func SiteMyGuides(c *gin.Context) {
	userID, _ := c.Get("userID")

	base := database.DB.Model(&models.Guide{}).Where("author_id = ?", userID.(uint))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count guides"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	page = clampPage(page, totalItems, sitePageSize)

	var guides []models.Guide
	if err := database.DB.Preload("Author").Preload("LikedBy").
		Where("author_id = ?", userID.(uint)).
		Order("created_at DESC").
		Offset((page - 1) * sitePageSize).Limit(sitePageSize).
		Find(&guides).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guides"})
		return
	}

	responses := make([]GuideResponse, 0, len(guides))
	for _, g := range guides {
		responses = append(responses, newGuideResponse(g, userID.(uint), nil))
	}

	c.JSON(http.StatusOK, gin.H{
		"guides":      responses,
		"total_count": totalItems,
		"page":        page,
		"page_size":   sitePageSize,
		"notices":     takeNotices(c),
	})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"quantumspacewar/backend/internal/auth"
	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

// GuideInput defines the structure for creating or updating a guide.
type GuideInput struct {
	Title      string `json:"title" binding:"required" example:"Beginner fleet setups"`
	Content    string `json:"content" binding:"required"`
	Category   string `json:"category" binding:"required" example:"beginner"`
	Tags       string `json:"tags" example:"fleet, opening, economy"`
	CoverImage string `json:"cover_image"`
}

// GuideResponse defines the list-view structure for a guide.
type GuideResponse struct {
	ID         uint         `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Category   string       `json:"category"`
	Tags       string       `json:"tags"`
	Author     UserResponse `json:"author"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Views      uint         `json:"views"`
	LikesCount int          `json:"likes_count"`
	IsLiked    bool         `json:"is_liked"`
	CoverImage string       `json:"cover_image"`
}

// GuideDetailResponse adds the full liked-by set to the detail view.
type GuideDetailResponse struct {
	GuideResponse
	LikedBy []uint `json:"liked_by"`
}

func newGuideResponse(guide models.Guide, viewerID uint, likedSet map[uint]bool) GuideResponse {
	isLiked := false
	if likedSet != nil {
		isLiked = likedSet[guide.ID]
	} else if viewerID != 0 {
		for _, u := range guide.LikedBy {
			if u.ID == viewerID {
				isLiked = true
				break
			}
		}
	}

	return GuideResponse{
		ID:         guide.ID,
		Title:      guide.Title,
		Content:    guide.Content,
		Category:   string(guide.Category),
		Tags:       guide.Tags,
		Author:     newUserResponse(guide.Author),
		CreatedAt:  guide.CreatedAt,
		UpdatedAt:  guide.UpdatedAt,
		Views:      guide.Views,
		LikesCount: len(guide.LikedBy),
		IsLiked:    isLiked,
		CoverImage: guide.CoverImage,
	}
}

func newGuideDetailResponse(guide models.Guide, viewerID uint) GuideDetailResponse {
	likedBy := make([]uint, 0, len(guide.LikedBy))
	for _, u := range guide.LikedBy {
		likedBy = append(likedBy, u.ID)
	}
	return GuideDetailResponse{
		GuideResponse: newGuideResponse(guide, viewerID, nil),
		LikedBy:       likedBy,
	}
}

// endregion

func viewerIDFromContext(c *gin.Context) uint {
	if v, exists := c.Get("userID"); exists {
		return v.(uint)
	}
	return 0
}

// GetGuides godoc
// @Summary      List guides
// @Description  Returns a paginated list of guides with optional search, category filter and ordering.
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        search   query  string  false  "Substring matched against title, content and tags"
// @Param        category query  string  false  "Category filter; 'all' bypasses it"
// @Param        ordering query  string  false  "One of -created_at, created_at, title, -title" default(-created_at)
// @Param        page     query  int     false  "Page number" default(1)
// @Param        limit    query  int     false  "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[GuideResponse]
// @Router       /guides [get]
func GetGuides(c *gin.Context) {
	viewerID := viewerIDFromContext(c)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Max limit
	}

	query := database.DB.Model(&models.Guide{}).Preload("Author").Preload("LikedBy")
	query = applyGuideSearch(query, c.Query("search"))
	query = applyCategoryFilter(query, c.Query("category"))
	query = applyGuideOrdering(query, c.DefaultQuery("ordering", "-created_at"))

	result, err := Paginate[models.Guide](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guides"})
		return
	}

	// One membership query for the whole page instead of scanning each
	// guide's liked-by set.
	ids := make([]uint, 0, len(result.Data))
	for _, g := range result.Data {
		ids = append(ids, g.ID)
	}
	likedSet := likedGuideIDs(database.DB, viewerID, ids)

	responses := make([]GuideResponse, 0, len(result.Data))
	for _, g := range result.Data {
		responses = append(responses, newGuideResponse(g, viewerID, likedSet))
	}

	c.JSON(http.StatusOK, PaginatedResponse[GuideResponse]{Data: responses, Meta: result.Meta})
}

// GetGuideByID godoc
// @Summary      Get a guide
// @Description  Retrieves one guide and bumps its view counter. Every API retrieve counts a view; only the site surface gates views per session.
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Guide ID"
// @Success      200  {object}  GuideDetailResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /guides/{id} [get]
func GetGuideByID(c *gin.Context) {
	viewerID := viewerIDFromContext(c)
	id, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	if err := database.DB.Preload("Author").Preload("LikedBy").First(&guide, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	if err := incrementGuideViews(guide.ID); err == nil {
		guide.Views++
	}

	c.JSON(http.StatusOK, newGuideDetailResponse(guide, viewerID))
}

// CreateGuide godoc
// @Summary      Create a guide
// @Description  Publishes a new guide. Rejected when the author published one within the last 60 seconds.
// @Tags         guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GuideInput true "Guide"
// @Success      201  {object}  GuideDetailResponse
// @Failure      400  {object}  map[string]string "field-keyed validation errors"
// @Failure      429  {object}  ErrorResponse "Posting too frequently"
// @Router       /guides [post]
func CreateGuide(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input GuideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := validateGuideFields(input.Title, input.Content, input.Category, input.Tags)
	if titleTaken(database.DB, input.Title, 0) {
		errs["title"] = "A guide with this title already exists"
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	if authorOnCooldown(database.DB, userID.(uint)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Posting too frequently, please try again later"})
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
		// The unique index is the real uniqueness guard; a racing
		// duplicate lands here instead of in the pre-check above.
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"title": "A guide with this title already exists"}})
		return
	}

	database.DB.Preload("Author").First(&guide, guide.ID)
	c.JSON(http.StatusCreated, newGuideDetailResponse(guide, userID.(uint)))
}

// UpdateGuide godoc
// @Summary      Update a guide
// @Description  Updates a guide owned by the caller. A guide that is missing or not owned answers 404 either way.
// @Tags         guides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int        true "Guide ID"
// @Param        input body GuideInput true "New guide content"
// @Success      200  {object}  GuideDetailResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  ErrorResponse
// @Router       /guides/{id} [put]
func UpdateGuide(c *gin.Context) {
	userID, _ := c.Get("userID")
	id, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	if err := database.DB.First(&guide, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}
	if !auth.CanModifyGuide(userID.(uint), &guide) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	var input GuideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := validateGuideFields(input.Title, input.Content, input.Category, input.Tags)
	if titleTaken(database.DB, input.Title, guide.ID) {
		errs["title"] = "A guide with this title already exists"
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	guide.Title = input.Title
	guide.Content = input.Content
	guide.Category = models.GuideCategory(input.Category)
	guide.Tags = input.Tags
	guide.CoverImage = input.CoverImage

	if err := database.DB.Save(&guide).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update guide"})
		return
	}

	database.DB.Preload("Author").Preload("LikedBy").First(&guide, guide.ID)
	c.JSON(http.StatusOK, newGuideDetailResponse(guide, userID.(uint)))
}

// DeleteGuide godoc
// @Summary      Delete a guide
// @Description  Deletes a guide owned by the caller. Missing and not-owned are indistinguishable.
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Guide ID"
// @Success      200  {object}  map[string]string "{"message": "Guide deleted"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /guides/{id} [delete]
func DeleteGuide(c *gin.Context) {
	userID, _ := c.Get("userID")
	id, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	if err := database.DB.First(&guide, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}
	if !auth.CanModifyGuide(userID.(uint), &guide) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	// Hard delete: a soft-deleted row would keep holding the unique
	// title index and the name could never be used again.
	if err := database.DB.Unscoped().Select("LikedBy").Delete(&guide).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete guide"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Guide deleted"})
}

// ToggleLikeGuide godoc
// @Summary      Toggle like on a guide
// @Description  Flips the caller's membership in the guide's liked-by set and returns the new state.
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Guide ID"
// @Success      200 {object} map[string]interface{} "{"is_liked": true, "likes_count": 3}"
// @Failure      404 {object} ErrorResponse
// @Router       /guides/{id}/like [post]
func ToggleLikeGuide(c *gin.Context) {
	userID, _ := c.Get("userID")
	guideID, _ := strconv.Atoi(c.Param("id"))

	var guide models.Guide
	if err := database.DB.First(&guide, guideID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Guide not found"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var isLiked bool
	// Check-and-flip inside one transaction so two racing toggles
	// resolve to exactly one of them winning.
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("guide_likes").
			Where("guide_id = ? AND user_id = ?", guide.ID, user.ID).
			Count(&count).Error; err != nil {
			return err
		}

		assoc := tx.Model(&guide).Association("LikedBy")
		if count > 0 {
			isLiked = false
			return assoc.Delete(&user)
		}
		isLiked = true
		return assoc.Append(&user)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update likes"})
		return
	}

	likesCount := database.DB.Model(&guide).Association("LikedBy").Count()

	message := "Like removed"
	if isLiked {
		message = "Liked"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"is_liked":    isLiked,
		"likes_count": likesCount,
	})
}

// GetMyGuides godoc
// @Summary      List the caller's guides
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200  {object}  PaginatedResponse[GuideResponse]
// @Router       /guides/my_guides [get]
func GetMyGuides(c *gin.Context) {
	userID, _ := c.Get("userID")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	query := database.DB.Model(&models.Guide{}).
		Preload("Author").Preload("LikedBy").
		Where("author_id = ?", userID.(uint)).
		Order("created_at DESC")

	result, err := Paginate[models.Guide](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guides"})
		return
	}

	responses := make([]GuideResponse, 0, len(result.Data))
	for _, g := range result.Data {
		responses = append(responses, newGuideResponse(g, userID.(uint), nil))
	}

	c.JSON(http.StatusOK, PaginatedResponse[GuideResponse]{Data: responses, Meta: result.Meta})
}

// GetGuidesByCategory godoc
// @Summary      List guides in one category
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        category path string true "Category"
// @Success      200  {array}  GuideResponse
// @Router       /guides/category/{category} [get]
func GetGuidesByCategory(c *gin.Context) {
	viewerID := viewerIDFromContext(c)
	category := c.Param("category")

	var guides []models.Guide
	if err := database.DB.Preload("Author").Preload("LikedBy").
		Where("category = ?", category).
		Order("created_at DESC").
		Find(&guides).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve guides"})
		return
	}

	responses := make([]GuideResponse, 0, len(guides))
	for _, g := range guides {
		responses = append(responses, newGuideResponse(g, viewerID, nil))
	}
	c.JSON(http.StatusOK, responses)
}

// SearchGuides godoc
// @Summary      Search guides
// @Description  Substring search across title, content and tags. An empty query returns an empty result set.
// @Tags         guides
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Search query"
// @Success      200  {object}  map[string][]GuideResponse "{"results": [...]}"
// @Router       /guides/search [get]
func SearchGuides(c *gin.Context) {
	viewerID := viewerIDFromContext(c)
	q := c.Query("q")

	if q == "" {
		c.JSON(http.StatusOK, gin.H{"results": []GuideResponse{}})
		return
	}

	var guides []models.Guide
	if err := applyGuideSearch(database.DB.Preload("Author").Preload("LikedBy"), q).
		Order("created_at DESC").
		Find(&guides).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	responses := make([]GuideResponse, 0, len(guides))
	for _, g := range guides {
		responses = append(responses, newGuideResponse(g, viewerID, nil))
	}
	c.JSON(http.StatusOK, gin.H{"results": responses})
}

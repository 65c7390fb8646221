package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// siteChatWindow is how many recent messages the room view shows.
const siteChatWindow = 50

// SiteChatInput is the form payload for a site chat message.
type SiteChatInput struct {
	Content string `json:"content" form:"content" binding:"required"`
}

// SiteCreateRoomInput is the form payload for creating a room.
type SiteCreateRoomInput struct {
	RoomName string `json:"room_name" form:"room_name"`
}

// activeRoomNames returns the distinct room names present in the
// message table. This is the ad-hoc room universe; it is independent
// of the fixed catalog served by the API.
func activeRoomNames() []string {
	var names []string
	database.DB.Model(&models.ChatMessage{}).
		Distinct("room_name").
		Order("room_name").
		Pluck("room_name", &names)
	return names
}

// SiteChatRoom serves a room view: the latest 50 messages re-ordered
// oldest-first for display, plus the list of active rooms.
func SiteChatRoom(c *gin.Context) {
	roomName := c.Param("room")

	var messages []models.ChatMessage
	if err := database.DB.Preload("Sender").
		Where("room_name = ?", roomName).
		Order("timestamp DESC").
		Limit(siteChatWindow).
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	// Newest-first from storage, chronological for display.
	responses := make([]ChatMessageResponse, len(messages))
	for i, m := range messages {
		responses[len(messages)-1-i] = newChatMessageResponse(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"room_name":    roomName,
		"messages":     responses,
		"active_rooms": activeRoomNames(),
		"notices":      takeNotices(c),
	})
}

// SiteSendMessage persists a message from the room form. Unlike the
// API surface, any room name is accepted here.
func SiteSendMessage(c *gin.Context) {
	userID, _ := c.Get("userID")
	roomName := c.Param("room")

	var input SiteChatInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content cannot be empty"})
		return
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content cannot be empty"})
		return
	}
	if len([]rune(content)) > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too long, at most 1000 characters allowed"})
		return
	}

	message := models.ChatMessage{
		SenderID: userID.(uint),
		Content:  content,
		RoomName: roomName,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	database.DB.Preload("Sender").First(&message, message.ID)
	c.JSON(http.StatusOK, gin.H{"message": newChatMessageResponse(message)})
}

// SitePollMessages returns messages strictly newer than last_id in
// chronological order. Clients call this on a short interval; there is
// no push channel.
func SitePollMessages(c *gin.Context) {
	roomName := c.Param("room")

	lastID, err := strconv.Atoi(c.DefaultQuery("last_id", "0"))
	if err != nil || lastID < 0 {
		lastID = 0
	}

	var messages []models.ChatMessage
	if err := database.DB.Preload("Sender").
		Where("room_name = ? AND id > ?", roomName, lastID).
		Order("id ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	responses := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, newChatMessageResponse(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":     responses,
		"room_name":    roomName,
		"active_rooms": activeRoomNames(),
	})
}

// SiteCreateRoom opens a new ad-hoc room by seeding it with a system
// message. A room "exists" exactly when it has at least one message,
// so an occupied name is rejected. The fixed catalog is untouched.
func SiteCreateRoom(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input SiteCreateRoomInput
	_ = c.ShouldBind(&input)

	roomName := strings.TrimSpace(input.RoomName)
	if roomName == "" {
		addNotice(c, "Room name cannot be empty")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room name cannot be empty"})
		return
	}

	var count int64
	database.DB.Model(&models.ChatMessage{}).Where("room_name = ?", roomName).Count(&count)
	if count > 0 {
		addNotice(c, "A room with this name already exists")
		c.JSON(http.StatusConflict, gin.H{"error": "A room with this name already exists"})
		return
	}

	seed := models.ChatMessage{
		SenderID: userID.(uint),
		Content:  fmt.Sprintf("Room %s created", roomName),
		RoomName: roomName,
	}
	if err := database.DB.Create(&seed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"redirect": "/site/chat/" + roomName})
}

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// chatPageSize is the API chat-history page size.
const chatPageSize = 20

// region --- DTOs ---

// ChatRoomResponse describes one entry of the fixed room catalog.
type ChatRoomResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	OnlineUsers int    `json:"online_users"`
}

// ChatMessageResponse defines the JSON shape of one chat message.
type ChatMessageResponse struct {
	ID        uint         `json:"id"`
	Sender    UserResponse `json:"sender"`
	Content   string       `json:"content"`
	RoomName  string       `json:"room_name"`
	Timestamp time.Time    `json:"timestamp"`
}

// SendMessageInput defines the structure for sending a chat message.
type SendMessageInput struct {
	Message  string `json:"message" binding:"required,max=1000"`
	RoomName string `json:"room_name" binding:"required,max=50"`
}

func newChatMessageResponse(m models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Sender:    newUserResponse(m.Sender),
		Content:   m.Content,
		RoomName:  m.RoomName,
		Timestamp: m.Timestamp,
	}
}

// endregion

// fixedRooms is the hard-coded room catalog. Rooms created ad hoc via
// the site surface live only in the chat_messages table and are never
// added here; the two room universes are tracked independently.
// OnlineUsers is a known stub and always reports zero.
var fixedRooms = []ChatRoomResponse{
	{Name: "general", DisplayName: "General", Description: "General game discussion", OnlineUsers: 0},
	{Name: "strategy", DisplayName: "Strategy", Description: "Share and discuss strategies", OnlineUsers: 0},
	{Name: "newbie", DisplayName: "Newbie", Description: "Help and guidance for new players", OnlineUsers: 0},
	{Name: "team", DisplayName: "Team Up", Description: "Find teammates to play with", OnlineUsers: 0},
}

// isFixedRoom reports whether the room belongs to the fixed catalog.
func isFixedRoom(name string) bool {
	for _, r := range fixedRooms {
		if r.Name == name {
			return true
		}
	}
	return false
}

// GetChatRooms godoc
// @Summary      List chat rooms
// @Description  Returns the fixed four-room catalog. online_users is not implemented and always zero.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ChatRoomResponse
// @Router       /chat/rooms [get]
func GetChatRooms(c *gin.Context) {
	c.JSON(http.StatusOK, fixedRooms)
}

// GetChatHistory godoc
// @Summary      Get chat history
// @Description  Returns one page of a room's messages, newest first, 20 per page.
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Param        room_name path  string true  "Room name"
// @Param        page      query int    false "Page number" default(1)
// @Success      200  {object}  map[string]interface{} "{"results": [...], "has_next": true}"
// @Router       /chat/history/{room_name} [get]
func GetChatHistory(c *gin.Context) {
	roomName := c.Param("room_name")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	var messages []models.ChatMessage
	if err := database.DB.Preload("Sender").
		Where("room_name = ?", roomName).
		Order("timestamp DESC").
		Offset((page - 1) * chatPageSize).
		Limit(chatPageSize).
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	responses := make([]ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, newChatMessageResponse(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"results":  responses,
		"has_next": len(messages) == chatPageSize,
	})
}

// SendChatMessage godoc
// @Summary      Send a chat message
// @Description  Persists a message in one of the fixed rooms. The room whitelist applies on this surface only.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body SendMessageInput true "Message"
// @Success      200  {object}  map[string]interface{} "{"success": true, "data": {...}}"
// @Failure      400  {object}  map[string]string "field-keyed validation errors"
// @Router       /chat/send [post]
func SendChatMessage(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := strings.TrimSpace(input.Message)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"message": "Message content cannot be empty"}})
		return
	}
	if !isFixedRoom(input.RoomName) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{
			"room_name": "Invalid room name, valid values: general, strategy, newbie, team",
		}})
		return
	}

	message := models.ChatMessage{
		SenderID: userID.(uint),
		Content:  content,
		RoomName: input.RoomName,
	}
	if err := database.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	database.DB.Preload("Sender").First(&message, message.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message sent",
		"data":    newChatMessageResponse(message),
	})
}

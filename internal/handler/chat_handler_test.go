package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, sender *models.User, room string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		msg := &models.ChatMessage{
			SenderID: sender.ID,
			Content:  fmt.Sprintf("message %d", i),
			RoomName: room,
		}
		require.NoError(t, database.DB.Create(msg).Error)
	}
}

func TestGetChatRooms(t *testing.T) {
	router := setupTest(t)
	user := createTestUser(t, "pilot")

	w := performRequest(router, http.MethodGet, "/api/v1/chat/rooms", nil, requestOptions{token: apiToken(t, user)})
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 4)
	assert.Equal(t, "general", rooms[0]["name"])
	for _, r := range rooms {
		assert.EqualValues(t, 0, r["online_users"], "online counter is a stub")
	}

	w = performRequest(router, http.MethodGet, "/api/v1/chat/rooms", nil, requestOptions{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSendChatMessage(t *testing.T) {
	router := setupTest(t)
	user := createTestUser(t, "pilot")
	tok := apiToken(t, user)

	send := func(message, room string) *httptest.ResponseRecorder {
		return performRequest(router, http.MethodPost, "/api/v1/chat/send",
			gin.H{"message": message, "room_name": room}, requestOptions{token: tok})
	}

	t.Run("valid message", func(t *testing.T) {
		w := send("hello out there", "general")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "hello out there", data["content"])
		assert.Equal(t, "general", data["room_name"])
		assert.Equal(t, "pilot", data["sender"].(map[string]any)["username"])
	})

	t.Run("whitespace-only message rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, send("   ", "general").Code)
	})

	t.Run("message length boundary", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, send(strings.Repeat("x", 1000), "general").Code)
		assert.Equal(t, http.StatusBadRequest, send(strings.Repeat("x", 1001), "general").Code)
	})

	t.Run("room outside the fixed catalog rejected", func(t *testing.T) {
		w := send("hello", "my-custom-room")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "room_name")
	})
}

func TestGetChatHistory(t *testing.T) {
	router := setupTest(t)
	user := createTestUser(t, "pilot")
	tok := apiToken(t, user)
	seedMessages(t, user, "general", 25)
	seedMessages(t, user, "strategy", 3)

	t.Run("first page is full and has a next page", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/chat/history/general", nil, requestOptions{token: tok})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Len(t, body["results"], 20)
		assert.Equal(t, true, body["has_next"])
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/chat/history/general?page=2", nil, requestOptions{token: tok})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Len(t, body["results"], 5)
		assert.Equal(t, false, body["has_next"])
	})

	t.Run("rooms do not leak into each other", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/chat/history/strategy", nil, requestOptions{token: tok})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody(t, w)["results"], 3)
	})

	t.Run("unknown room yields an empty page", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/chat/history/nowhere", nil, requestOptions{token: tok})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Empty(t, body["results"])
		assert.Equal(t, false, body["has_next"])
	})
}

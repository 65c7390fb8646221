package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quantumspacewar/backend/internal/auth"
	"quantumspacewar/backend/internal/config"
	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"
	"quantumspacewar/backend/pkg/token"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "secret42"

// setupTest wires an in-memory database, a miniredis-backed token
// store and the full router for one test.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	mr := miniredis.RunT(t)
	auth.Tokens = token.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	config.AppConfig = &config.Config{
		SessionSecret: "test-secret-12345678901234567890",
		SiteTitle:     "Quantum Space War",
		SiteHeader:    "Quantum Space War Guide Center",
	}

	return NewRouter()
}

func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, database.DB.Create(user).Error)
	return user
}

func createTestGuide(t *testing.T, author *models.User, title string) *models.Guide {
	t.Helper()
	guide := &models.Guide{
		Title:    title,
		Content:  "This is a sufficiently long guide content for testing.",
		Category: models.CategoryStrategy,
		AuthorID: author.ID,
	}
	require.NoError(t, database.DB.Create(guide).Error)
	return guide
}

// backdateGuide moves a guide's creation time out of the publishing
// cooldown window.
func backdateGuide(t *testing.T, guide *models.Guide) {
	t.Helper()
	past := time.Now().Add(-5 * time.Minute)
	require.NoError(t, database.DB.Model(guide).UpdateColumn("created_at", past).Error)
}

func apiToken(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := auth.Tokens.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	return tok
}

type requestOptions struct {
	token   string
	cookies []*http.Cookie
}

func performRequest(router *gin.Engine, method, path string, body any, opts requestOptions) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	for _, c := range opts.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// siteLogin signs the user in through the site surface and returns the
// session cookies for follow-up requests.
func siteLogin(t *testing.T, router *gin.Engine, username string) []*http.Cookie {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/site/login", gin.H{
		"username": username,
		"password": testPassword,
	}, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func guidePath(id any) string { return fmt.Sprintf("/api/v1/guides/%v", id) }

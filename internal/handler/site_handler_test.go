package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refreshCookies carries the session forward: a response that saved the
// session supersedes the cookies the request went in with.
func refreshCookies(old []*http.Cookie, w *httptest.ResponseRecorder) []*http.Cookie {
	if fresh := w.Result().Cookies(); len(fresh) > 0 {
		return fresh
	}
	return old
}

func sessionCookie(t *testing.T, cookies []*http.Cookie) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == "qsw_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSiteConfig(t *testing.T) {
	router := setupTest(t)

	w := performRequest(router, http.MethodGet, "/site/config", nil, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Quantum Space War", body["site_title"])
	assert.Equal(t, "Quantum Space War Guide Center", body["site_header"])
}

func TestSiteRegister(t *testing.T) {
	router := setupTest(t)

	w := performRequest(router, http.MethodPost, "/site/register", gin.H{
		"username":         "newpilot",
		"email":            "newpilot@example.com",
		"password":         testPassword,
		"password_confirm": testPassword,
	}, requestOptions{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "/site/guides", decodeBody(t, w)["redirect"])

	// Registration signs the user in.
	cookies := w.Result().Cookies()
	w = performRequest(router, http.MethodGet, "/site/my-guides", nil, requestOptions{cookies: cookies})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSiteLoginRememberMe(t *testing.T) {
	router := setupTest(t)
	createTestUser(t, "pilot")

	t.Run("remember me keeps the cookie for two weeks", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/login", gin.H{
			"username":    "pilot",
			"password":    testPassword,
			"remember_me": true,
		}, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		c := sessionCookie(t, w.Result().Cookies())
		assert.Equal(t, 14*24*3600, c.MaxAge)
	})

	t.Run("plain login dies with the browser", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/login", gin.H{
			"username": "pilot",
			"password": testPassword,
		}, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code)
		c := sessionCookie(t, w.Result().Cookies())
		assert.Zero(t, c.MaxAge)
		assert.True(t, c.Expires.IsZero())
	})
}

func TestSiteLoginNextRedirect(t *testing.T) {
	router := setupTest(t)
	createTestUser(t, "pilot")

	login := func(next string) string {
		path := "/site/login"
		if next != "" {
			path += "?next=" + next
		}
		w := performRequest(router, http.MethodPost, path, gin.H{
			"username": "pilot", "password": testPassword,
		}, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code)
		return decodeBody(t, w)["redirect"].(string)
	}

	assert.Equal(t, "/site/guides", login(""))
	assert.Equal(t, "/site/my-guides", login("/site/my-guides"))
	// Absolute and protocol-relative URLs are not honored, stopping
	// open redirects.
	assert.Equal(t, "/site/guides", login("http://example.com/evil"))
	assert.Equal(t, "/site/guides", login("//example.com/evil"))
}

func TestSiteLogout(t *testing.T) {
	router := setupTest(t)
	createTestUser(t, "pilot")
	cookies := siteLogin(t, router, "pilot")

	w := performRequest(router, http.MethodPost, "/site/logout", nil, requestOptions{cookies: cookies})
	require.Equal(t, http.StatusOK, w.Code)
	cookies = refreshCookies(cookies, w)

	w = performRequest(router, http.MethodGet, "/site/my-guides", nil, requestOptions{cookies: cookies})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/site/login", decodeBody(t, w)["redirect"])
}

func TestSiteViewsCountOncePerSession(t *testing.T) {
	router := setupTest(t)
	author := createTestUser(t, "author")
	guide := createTestGuide(t, author, "A guide viewed from the site")
	path := fmt.Sprintf("/site/guides/%d", guide.ID)

	views := func(w *httptest.ResponseRecorder) any {
		return decodeBody(t, w)["guide"].(map[string]any)["views"]
	}

	w := performRequest(router, http.MethodGet, path, nil, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, views(w))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "the view marker must be persisted")

	// The same session does not count a second visit.
	w = performRequest(router, http.MethodGet, path, nil, requestOptions{cookies: cookies})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, views(w))

	// A fresh session counts again.
	w = performRequest(router, http.MethodGet, path, nil, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, views(w))
}

func TestSiteHomePaging(t *testing.T) {
	router := setupTest(t)
	author := createTestUser(t, "author")
	for i := 0; i < 12; i++ {
		createTestGuide(t, author, fmt.Sprintf("Numbered guide %02d", i))
	}

	t.Run("fixed page size of ten", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/site/guides", nil, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Len(t, body["guides"], 10)
		assert.EqualValues(t, 12, body["total_count"])
	})

	t.Run("out-of-range page clamps to the last page", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/site/guides?page=99", nil, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.EqualValues(t, 2, body["page"])
		assert.Len(t, body["guides"], 2)
	})

	t.Run("page below one clamps to the first page", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/site/guides?page=0", nil, requestOptions{})
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decodeBody(t, w)["page"])
	})
}

func TestSiteSearchMatchesAuthorName(t *testing.T) {
	router := setupTest(t)
	wanted := createTestUser(t, "starqueen")
	other := createTestUser(t, "someone")
	createTestGuide(t, wanted, "A guide found by its author")
	createTestGuide(t, other, "A guide by somebody else")

	w := performRequest(router, http.MethodGet, "/site/guides?q=starqueen", nil, requestOptions{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["total_count"])
	guides := body["guides"].([]any)
	require.Len(t, guides, 1)
	assert.Equal(t, "A guide found by its author", guides[0].(map[string]any)["title"])
}

func TestSiteCreateGuide(t *testing.T) {
	router := setupTest(t)
	createTestUser(t, "author")
	cookies := siteLogin(t, router, "author")

	w := performRequest(router, http.MethodPost, "/site/guides",
		validGuideInput("A site-published guide"), requestOptions{cookies: cookies})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, decodeBody(t, w)["redirect"], "/site/guides/")
	cookies = refreshCookies(cookies, w)

	t.Run("cooldown echoes the submitted form", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/guides",
			validGuideInput("Blocked by the cooldown"), requestOptions{cookies: cookies})
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		form := decodeBody(t, w)["form"].(map[string]any)
		assert.Equal(t, "Blocked by the cooldown", form["title"])
	})

	t.Run("validation failure echoes the submitted form", func(t *testing.T) {
		bad := validGuideInput("bad")
		w := performRequest(router, http.MethodPost, "/site/guides", bad, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["errors"].(map[string]any), "title")
		assert.Equal(t, "bad", body["form"].(map[string]any)["title"])
	})

	t.Run("anonymous submission is turned away", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/guides",
			validGuideInput("No session attached here"), requestOptions{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestSiteDeleteGuide(t *testing.T) {
	router := setupTest(t)
	owner := createTestUser(t, "owner")
	createTestUser(t, "stranger")
	guide := createTestGuide(t, owner, "A guide on the chopping block")
	deletePath := fmt.Sprintf("/site/guides/%d/delete", guide.ID)

	t.Run("non-owner gets the not-found collapse and a notice", func(t *testing.T) {
		cookies := siteLogin(t, router, "stranger")
		w := performRequest(router, http.MethodPost, deletePath, nil, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "/site/my-guides", decodeBody(t, w)["redirect"])
		cookies = refreshCookies(cookies, w)

		w = performRequest(router, http.MethodGet, "/site/my-guides", nil, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "no permission to delete")

		var count int64
		database.DB.Model(&models.Guide{}).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("owner deletes for real", func(t *testing.T) {
		cookies := siteLogin(t, router, "owner")
		w := performRequest(router, http.MethodPost, deletePath, nil, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code)

		var count int64
		database.DB.Model(&models.Guide{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestSiteChat(t *testing.T) {
	router := setupTest(t)
	createTestUser(t, "pilot")
	cookies := siteLogin(t, router, "pilot")

	t.Run("create room seeds a system message", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/chat/create-room",
			gin.H{"room_name": "tactics"}, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "/site/chat/tactics", decodeBody(t, w)["redirect"])

		var seed models.ChatMessage
		require.NoError(t, database.DB.Where("room_name = ?", "tactics").First(&seed).Error)
		assert.Equal(t, "Room tactics created", seed.Content)
	})

	t.Run("occupied room name is rejected", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/chat/create-room",
			gin.H{"room_name": "tactics"}, requestOptions{cookies: cookies})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("blank room name is rejected", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/chat/create-room",
			gin.H{"room_name": "   "}, requestOptions{cookies: cookies})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("any room name accepts messages on this surface", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/site/chat/some-unlisted-room/send",
			gin.H{"content": "hello from nowhere"}, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("room view lists messages chronologically with active rooms", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/site/chat/tactics", nil, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		msgs := body["messages"].([]any)
		require.NotEmpty(t, msgs)
		assert.Equal(t, "Room tactics created", msgs[0].(map[string]any)["content"])
		assert.Contains(t, body["active_rooms"], "tactics")
		assert.Contains(t, body["active_rooms"], "some-unlisted-room")
	})

	t.Run("poll returns only messages newer than last_id", func(t *testing.T) {
		first := performRequest(router, http.MethodPost, "/site/chat/tactics/send",
			gin.H{"content": "first"}, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, first.Code)

		var marker models.ChatMessage
		require.NoError(t, database.DB.Where("room_name = ? AND content = ?", "tactics", "first").First(&marker).Error)

		second := performRequest(router, http.MethodPost, "/site/chat/tactics/send",
			gin.H{"content": "second"}, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, second.Code)

		path := fmt.Sprintf("/site/chat/tactics/messages?last_id=%d", marker.ID)
		w := performRequest(router, http.MethodGet, path, nil, requestOptions{cookies: cookies})
		require.Equal(t, http.StatusOK, w.Code)
		msgs := decodeBody(t, w)["messages"].([]any)
		require.Len(t, msgs, 1)
		assert.Equal(t, "second", msgs[0].(map[string]any)["content"])
	})
}

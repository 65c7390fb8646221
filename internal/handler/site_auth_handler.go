package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"quantumspacewar/backend/internal/config"
	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// addNotice queues a one-shot user-facing notice in the session, the
// flash-message pattern of server-rendered apps.
func addNotice(c *gin.Context, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg)
	if err := session.Save(); err != nil {
		logger.L.Warn("failed to save notice", zap.Error(err))
	}
}

// takeNotices drains and returns the queued notices.
func takeNotices(c *gin.Context) []string {
	session := sessions.Default(c)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	_ = session.Save()
	notices := make([]string, 0, len(flashes))
	for _, f := range flashes {
		if s, ok := f.(string); ok {
			notices = append(notices, s)
		}
	}
	return notices
}

// SiteRegister creates an account from the registration form and signs
// the new user in.
func SiteRegister(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := validateRegistration(input); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	user, err := createAccount(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed"})
		return
	}

	if err := establishSession(c, user.ID, false); err != nil {
		logger.L.Warn("session save failed on site register", zap.Error(err))
	}

	addNotice(c, fmt.Sprintf("Welcome aboard, %s! Start sharing your quantum tactics.", user.Username))
	c.JSON(http.StatusCreated, gin.H{"redirect": "/site/guides"})
}

// SiteLogin signs a user in via the login form. Remember-me keeps the
// session alive for two weeks; otherwise the cookie dies with the
// browser. Wrong password and disabled account get the same answer.
func SiteLogin(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, ok := authenticate(input.Username, input.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	if err := establishSession(c, user.ID, input.RememberMe); err != nil {
		logger.L.Warn("session save failed on site login", zap.Error(err))
	}

	database.DB.Model(user).UpdateColumn("last_login", time.Now())

	addNotice(c, fmt.Sprintf("Welcome back, %s!", user.Username))

	// Only same-origin paths are honored. "//host" is a
	// protocol-relative URL, not a path.
	next := c.Query("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/site/guides"
	}
	c.JSON(http.StatusOK, gin.H{"redirect": next})
}

// SiteLogout clears the session.
func SiteLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		logger.L.Warn("session clear failed on site logout", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"redirect": "/site/guides"})
}

// SiteConfig exposes the static site branding, fixed at process start.
func SiteConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_title":  config.AppConfig.SiteTitle,
		"site_header": config.AppConfig.SiteHeader,
	})
}

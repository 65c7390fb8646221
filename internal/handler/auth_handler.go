package handler

import (
	"net/http"
	"regexp"
	"time"

	"quantumspacewar/backend/internal/auth"
	"quantumspacewar/backend/internal/config"
	"quantumspacewar/backend/internal/database"
	"quantumspacewar/backend/internal/logger"
	"quantumspacewar/backend/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username        string `json:"username" form:"username" binding:"required" example:"spacecadet"`
	Email           string `json:"email" form:"email" binding:"required" example:"cadet@example.com"`
	Password        string `json:"password" form:"password" binding:"required" example:"secret42"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" binding:"required" example:"secret42"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Username   string `json:"username" form:"username" binding:"required" example:"spacecadet"`
	Password   string `json:"password" form:"password" binding:"required" example:"secret42"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

// UserResponse defines the structure for a user summary in responses.
type UserResponse struct {
	ID         uint       `json:"id" example:"1"`
	Username   string     `json:"username" example:"spacecadet"`
	Email      string     `json:"email" example:"cadet@example.com"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		DateJoined: user.CreatedAt,
		LastLogin:  user.LastLogin,
	}
}

// endregion

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// validateRegistration checks the shape and uniqueness rules for a new
// account and returns field-keyed error messages.
func validateRegistration(input RegisterInput) map[string]string {
	errs := make(map[string]string)

	if !usernamePattern.MatchString(input.Username) {
		errs["username"] = "Username must be 3-20 characters of letters, digits and underscores"
	} else {
		var count int64
		database.DB.Model(&models.User{}).Where("username = ?", input.Username).Count(&count)
		if count > 0 {
			errs["username"] = "Username already exists"
		}
	}

	if !emailPattern.MatchString(input.Email) {
		errs["email"] = "Enter a valid email address"
	} else {
		var count int64
		database.DB.Model(&models.User{}).Where("email = ?", input.Email).Count(&count)
		if count > 0 {
			errs["email"] = "Email is already registered"
		}
	}

	if len(input.Password) < 6 {
		errs["password"] = "Password must be at least 6 characters"
	}
	if input.Password != input.PasswordConfirm {
		errs["password_confirm"] = "Passwords do not match"
	}

	return errs
}

// createAccount persists a new user plus its empty profile.
func createAccount(input RegisterInput) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		IsActive:     true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// authenticate verifies credentials. A disabled account and a wrong
// password both come back as ok=false so the caller can answer with
// one generic message; the distinction is only logged.
func authenticate(username, password string) (*models.User, bool) {
	var user models.User
	if err := database.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, false
	}
	if !user.IsActive {
		logger.L.Warn("login attempt on disabled account",
			zap.String("username", username), zap.Uint("user_id", user.ID))
		return nil, false
	}
	return &user, true
}

// establishSession signs the user into the cookie session, applying
// the remember-me expiry policy: 14 days when set, browser-close
// otherwise.
func establishSession(c *gin.Context, userID uint, rememberMe bool) error {
	session := sessions.Default(c)
	session.Set(auth.SessionKeyUserID, userID)

	maxAge := 0 // session cookie, expires when the browser closes
	if rememberMe {
		maxAge = int(config.RememberMeDuration.Seconds())
	}
	session.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
	return session.Save()
}

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new account, signs it in and returns a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  map[string]interface{} "{"token": "...", "user": {...}}"
// @Failure      400  {object}  map[string]string "field-keyed validation errors"
// @Failure      500  {object}  ErrorResponse
// @Router       /auth/register [post]
func RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := validateRegistration(input); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	user, err := createAccount(input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if err := establishSession(c, user.ID, false); err != nil {
		logger.L.Warn("session save failed on register", zap.Error(err))
	}

	token, err := auth.Tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"token":   token,
		"user":    newUserResponse(*user),
		"message": "Registration successful",
	})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates with username and password, establishes a session and returns a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  map[string]interface{} "{"token": "...", "user": {...}}"
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      401  {object}  ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, ok := authenticate(input.Username, input.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	now := time.Now()
	database.DB.Model(user).UpdateColumn("last_login", now)
	user.LastLogin = &now

	if err := establishSession(c, user.ID, input.RememberMe); err != nil {
		logger.L.Warn("session save failed on login", zap.Error(err))
	}

	token, err := auth.Tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    newUserResponse(*user),
		"message": "Login successful",
	})
}

// LogoutUser godoc
// @Summary      Log out
// @Description  Revokes the bearer token and clears the session. Logging out twice is not an error.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "Logged out"}"
// @Router       /auth/logout [post]
func LogoutUser(c *gin.Context) {
	if t, exists := c.Get("authToken"); exists {
		if err := auth.Tokens.Revoke(c.Request.Context(), t.(string)); err != nil {
			logger.L.Warn("token revoke failed", zap.Error(err))
		}
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		logger.L.Warn("session clear failed on logout", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetProfile godoc
// @Summary      Get current user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/profile [get]
func GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := database.DB.First(&user, userID.(uint)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}

// ObtainToken godoc
// @Summary      Obtain a bearer token
// @Description  Exchanges username and password for the account's bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Credentials"
// @Success      200  {object}  map[string]string "{"token": "..."}"
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/token [post]
func ObtainToken(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}

	user, ok := authenticate(input.Username, input.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := auth.Tokens.Issue(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

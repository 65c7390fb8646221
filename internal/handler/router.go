package handler

import (
	"quantumspacewar/backend/internal/auth"
	"quantumspacewar/backend/internal/config"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with both HTTP surfaces mounted:
// the JSON API under /api/v1 (bearer-token auth) and the site surface
// under /site (cookie-session auth). The two keep deliberately
// different semantics; see the individual handlers.
func NewRouter() *gin.Engine {
	router := gin.Default()

	store := cookie.NewStore([]byte(config.AppConfig.SessionSecret))
	router.Use(sessions.Sessions("qsw_session", store))

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", RegisterUser)
			authRoutes.POST("/login", LoginUser)
			authRoutes.POST("/token", ObtainToken)
			// Optional auth: logging out with an already-revoked or
			// missing credential is not an error.
			authRoutes.POST("/logout", auth.OptionalAuthMiddleware(), LogoutUser)
			authRoutes.GET("/profile", auth.AuthMiddleware(), GetProfile)
		}

		guideRoutes := apiV1.Group("/guides")
		{
			// Reads are open; like-state is filled in for signed-in callers.
			guideRoutes.GET("", auth.OptionalAuthMiddleware(), GetGuides)
			guideRoutes.GET("/search", auth.OptionalAuthMiddleware(), SearchGuides)
			guideRoutes.GET("/category/:category", auth.OptionalAuthMiddleware(), GetGuidesByCategory)
			guideRoutes.GET("/:id", auth.OptionalAuthMiddleware(), GetGuideByID)

			guideRoutes.POST("", auth.AuthMiddleware(), CreateGuide)
			guideRoutes.PUT("/:id", auth.AuthMiddleware(), UpdateGuide)
			guideRoutes.DELETE("/:id", auth.AuthMiddleware(), DeleteGuide)
			guideRoutes.POST("/:id/like", auth.AuthMiddleware(), ToggleLikeGuide)
			guideRoutes.GET("/my_guides", auth.AuthMiddleware(), GetMyGuides)
		}

		chatRoutes := apiV1.Group("/chat")
		chatRoutes.Use(auth.AuthMiddleware())
		{
			chatRoutes.GET("/rooms", GetChatRooms)
			chatRoutes.GET("/history/:room_name", GetChatHistory)
			chatRoutes.POST("/send", SendChatMessage)
		}
	}

	// Site routes (session-cookie surface)
	site := router.Group("/site")
	{
		site.GET("/config", SiteConfig)
		site.POST("/register", SiteRegister)
		site.POST("/login", SiteLogin)
		site.POST("/logout", SiteLogout)

		site.GET("/guides", auth.OptionalSessionMiddleware(), SiteHome)
		site.GET("/guides/:id", auth.OptionalSessionMiddleware(), SiteGuideDetail)

		authed := site.Group("")
		authed.Use(auth.SessionAuthMiddleware())
		{
			authed.POST("/guides", SiteCreateGuide)
			authed.POST("/guides/:id/delete", SiteDeleteGuide)
			authed.GET("/my-guides", SiteMyGuides)

			authed.GET("/chat/:room", SiteChatRoom)
			authed.POST("/chat/:room/send", SiteSendMessage)
			authed.GET("/chat/:room/messages", SitePollMessages)
			authed.POST("/chat/create-room", SiteCreateRoom)
		}
	}

	return router
}

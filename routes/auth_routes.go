package routes

import (
	handlers "carrental/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers the public account endpoints
func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}
}

func SetupProfileRoutes(r *gin.RouterGroup, auth gin.HandlerFunc, profileHandler *handlers.ProfileHandler) {
	profile := r.Group("/profile")
	profile.Use(auth)
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PUT("", profileHandler.UpdateProfile)
		profile.POST("/upload-image", profileHandler.UploadImage)
	}
}

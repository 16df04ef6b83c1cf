package routes

import (
	handlers "carrental/internal/handlers/shared"
	"carrental/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes registers the chat REST endpoints under r and the
// websocket endpoint at wsPath on the root router.
func SetupChatRoutes(router *gin.Engine, r *gin.RouterGroup, auth gin.HandlerFunc, chatHandler *handlers.ChatHandler, wsHandler *websocket.Handler, wsPath string) {
	chat := r.Group("/chat")
	chat.Use(auth)
	{
		chat.POST("/send", chatHandler.SendMessage)
		chat.GET("/messages/:receiver_username", chatHandler.GetMessages)
		chat.GET("/search-users", chatHandler.SearchUsers)
		chat.GET("/online", chatHandler.OnlineUsers)
	}

	router.GET(wsPath, auth, wsHandler.HandleWebSocket)
}

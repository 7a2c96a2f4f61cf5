package http

import (
	gohttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/duetchat/duet/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(
	authHandlers *AuthHandlers,
	chatHandlers *ChatHandlers,
	tokens *service.TokenService,
	wsGateway gohttp.Handler,
) *gin.Engine {
	router := gin.Default()

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/signup", authHandlers.Signup)
		auth.POST("/verify", authHandlers.Verify)
		auth.POST("/signin", authHandlers.Signin)
		auth.POST("/refresh", authHandlers.Refresh)
		auth.POST("/logout", authHandlers.Logout)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(tokens))
	{
		api.GET("/users/search", authHandlers.Search)

		api.POST("/messages", chatHandlers.SendMessage)
		api.GET("/messages/:userId", chatHandlers.History)
		api.PUT("/messages/:messageId", chatHandlers.EditMessage)
		api.DELETE("/messages/:messageId", chatHandlers.DeleteMessage)

		api.POST("/connections", chatHandlers.CreateConnection)
		api.GET("/connections", chatHandlers.ListConnections)
		api.DELETE("/connections/:userId", chatHandlers.DeleteConnection)
	}

	// Realtime channel endpoint; the gateway does its own token handshake.
	router.GET("/ws", gin.WrapH(wsGateway))

	return router
}

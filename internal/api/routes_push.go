package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/handlers"
)

func registerPushRoutes(api *gin.RouterGroup, handler *handlers.PushHandler) {
	group := api.Group("/push")
	{
		group.GET("/public-key", handler.PublicKey)
		group.POST("/subscribe", handler.Subscribe)
		group.DELETE("/subscribe", handler.Unsubscribe)
	}
}

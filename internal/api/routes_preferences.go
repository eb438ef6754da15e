package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/handlers"
)

func registerPreferenceRoutes(api *gin.RouterGroup, handler *handlers.PreferenceHandler) {
	group := api.Group("/notifications/preferences")
	{
		group.GET("", handler.Get)
		group.PUT("", handler.Update)
	}
}

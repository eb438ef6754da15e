package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/handlers"
	"github.com/wedfulapp/wedful-notify/internal/middleware"
)

func registerEventRoutes(api *gin.RouterGroup, handler *handlers.EventHandler) {
	events := api.Group("/events")
	{
		events.POST("/activity", handler.Activity)
		events.POST("/budget", handler.BudgetChange)
	}

	api.POST("/announcements", middleware.RequireAdmin(), handler.Announce)
}

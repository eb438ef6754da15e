package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/wedfulapp/wedful-notify/internal/app"
	"github.com/wedfulapp/wedful-notify/internal/handlers"
	"github.com/wedfulapp/wedful-notify/internal/middleware"
	"github.com/wedfulapp/wedful-notify/internal/notify"
	"github.com/wedfulapp/wedful-notify/internal/push"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, pushSvc *push.Service, dispatcher *notify.Dispatcher, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if pushSvc == nil {
		return nil, fmt.Errorf("push service must be provided")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.RequireUser())

	notificationHandler, err := handlers.NewNotificationHandler(db)
	if err != nil {
		return nil, err
	}
	registerNotificationRoutes(api, notificationHandler)

	preferenceHandler, err := handlers.NewPreferenceHandler(db)
	if err != nil {
		return nil, err
	}
	registerPreferenceRoutes(api, preferenceHandler)

	pushHandler, err := handlers.NewPushHandler(pushSvc)
	if err != nil {
		return nil, err
	}
	registerPushRoutes(api, pushHandler)

	eventHandler, err := handlers.NewEventHandler(dispatcher)
	if err != nil {
		return nil, err
	}
	registerEventRoutes(api, eventHandler)

	return r, nil
}

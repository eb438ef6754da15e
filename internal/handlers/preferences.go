package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wedfulapp/wedful-notify/internal/middleware"
	"github.com/wedfulapp/wedful-notify/internal/services"
	"github.com/wedfulapp/wedful-notify/pkg/errors"
	"github.com/wedfulapp/wedful-notify/pkg/response"
)

// PreferenceHandler exposes notification preference endpoints.
type PreferenceHandler struct {
	service *services.PreferenceService
}

// NewPreferenceHandler constructs a preference handler.
func NewPreferenceHandler(db *gorm.DB) (*PreferenceHandler, error) {
	service, err := services.NewPreferenceService(db)
	if err != nil {
		return nil, err
	}
	return &PreferenceHandler{service: service}, nil
}

// Get returns the user's preferences, creating defaults on first access.
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	pref, err := h.service.GetOrCreate(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}

// Update applies a partial preference update; absent fields keep their
// stored values.
func (h *PreferenceHandler) Update(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload services.UpdatePreferenceInput
	if !bindAndValidate(c, &payload) {
		return
	}

	pref, err := h.service.Update(requestContext(c), userID, payload)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, pref)
}

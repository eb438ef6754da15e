package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/middleware"
	"github.com/wedfulapp/wedful-notify/internal/push"
	"github.com/wedfulapp/wedful-notify/pkg/errors"
	"github.com/wedfulapp/wedful-notify/pkg/response"
)

// PushHandler exposes push subscription endpoints.
type PushHandler struct {
	service *push.Service
}

// NewPushHandler constructs a push handler.
func NewPushHandler(service *push.Service) (*PushHandler, error) {
	if service == nil {
		return nil, stderrors.New("push handler: service is required")
	}
	return &PushHandler{service: service}, nil
}

// PublicKey returns the VAPID public key clients need to subscribe. An
// unconfigured transport is a valid state, not an error.
func (h *PushHandler) PublicKey(c *gin.Context) {
	key := h.service.PublicKey()
	response.Success(c, http.StatusOK, gin.H{
		"configured": key != "",
		"public_key": key,
	})
}

// Subscribe registers or refreshes the caller's push subscription.
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload push.SubscriptionInput
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.service.Subscribe(requestContext(c), userID, payload, c.Request.UserAgent()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"subscribed": true})
}

// Unsubscribe removes the subscription for the supplied endpoint.
// Removing an unknown endpoint succeeds quietly.
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		Endpoint string `json:"endpoint" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	if err := h.service.Unsubscribe(requestContext(c), userID, strings.TrimSpace(payload.Endpoint)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unsubscribed": true})
}

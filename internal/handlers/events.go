package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/internal/middleware"
	"github.com/wedfulapp/wedful-notify/internal/notify"
	"github.com/wedfulapp/wedful-notify/pkg/errors"
	"github.com/wedfulapp/wedful-notify/pkg/response"
)

// EventHandler receives domain-event triggers from the CRUD services and
// the admin console. The heavy lifting happens in the dispatcher; these
// endpoints only translate payloads.
type EventHandler struct {
	dispatcher *notify.Dispatcher
}

// NewEventHandler constructs an event handler.
func NewEventHandler(dispatcher *notify.Dispatcher) (*EventHandler, error) {
	if dispatcher == nil {
		return nil, errors.ErrInternalServer
	}
	return &EventHandler{dispatcher: dispatcher}, nil
}

// Activity notifies the caller's partner about a planning mutation.
func (h *EventHandler) Activity(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	coupleID := c.GetString(middleware.CtxCoupleIDKey)
	if userID == "" || coupleID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		ActivityType string `json:"activity_type" validate:"required,oneof=venue expense checklist schedule"`
		Action       string `json:"action" validate:"required,oneof=add update delete"`
		ActorName    string `json:"actor_name" validate:"required"`
		ItemName     string `json:"item_name"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	created, err := h.dispatcher.NotifyCoupleActivity(
		requestContext(c),
		userID,
		payload.ActorName,
		coupleID,
		notify.ActivityType(payload.ActivityType),
		notify.ActivityAction(payload.Action),
		payload.ItemName,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"created": created})
}

// BudgetChange runs the realtime budget-crossing check after an expense
// mutation. A response with created=0 means no threshold was crossed or
// the alert was suppressed by preference.
func (h *EventHandler) BudgetChange(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	coupleID := c.GetString(middleware.CtxCoupleIDKey)
	if userID == "" || coupleID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var payload struct {
		PreviousTotalSpent int64 `json:"previous_total_spent" validate:"gte=0"`
		CurrentTotalSpent  int64 `json:"current_total_spent" validate:"gte=0"`
		TotalBudget        int64 `json:"total_budget" validate:"gte=0"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	created, err := h.dispatcher.NotifyBudgetChange(
		requestContext(c),
		coupleID,
		payload.PreviousTotalSpent,
		payload.CurrentTotalSpent,
		payload.TotalBudget,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"created": created})
}

// Announce broadcasts an announcement to every non-admin user.
func (h *EventHandler) Announce(c *gin.Context) {
	var payload struct {
		Title   string `json:"title" validate:"required,max=255"`
		Content string `json:"content" validate:"required"`
	}
	if !bindAndValidate(c, &payload) {
		return
	}

	created, err := h.dispatcher.AnnounceToAll(requestContext(c), payload.Title, payload.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"created": created})
}

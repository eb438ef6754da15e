package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wedfulapp/wedful-notify/pkg/errors"
	"github.com/wedfulapp/wedful-notify/pkg/response"
)

// Context keys populated by the identity middleware.
const (
	CtxUserIDKey   = "userID"
	CtxCoupleIDKey = "coupleID"
	CtxUserRoleKey = "userRole"
)

// Headers the authenticating gateway injects after validating the
// session. This service trusts them; it performs no authentication of
// its own.
const (
	HeaderUserID   = "X-User-ID"
	HeaderCoupleID = "X-Couple-ID"
	HeaderUserRole = "X-User-Role"
)

const roleAdmin = "admin"

// RequireUser extracts the gateway-supplied identity headers into the
// request context and rejects requests that carry no user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Set(CtxCoupleIDKey, strings.TrimSpace(c.GetHeader(HeaderCoupleID)))
		c.Set(CtxUserRoleKey, strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		c.Next()
	}
}

// RequireAdmin gates endpoints reserved for operators, on top of
// RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRoleKey) != roleAdmin {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

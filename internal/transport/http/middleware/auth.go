package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-attendance/internal/app"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/model"
	"hr-attendance/internal/transport/http/response"
)

const ContextUserKey = "current_user"

type AccessResolver interface {
	Resolve(ctx context.Context, authorization string, req app.Requirement) app.AccessResult
}

// Authorize resolves the bearer token on every request and stores the
// authenticated user under ContextUserKey.
func Authorize(gate AccessResolver, req app.Requirement, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := gate.Resolve(c.Request.Context(), c.GetHeader("Authorization"), req)
		switch res.Status {
		case app.AccessAuthenticated:
			c.Set(ContextUserKey, res.User)
			c.Next()
		case app.AccessForbidden:
			response.Abort(c, http.StatusForbidden, res.Detail)
		case app.AccessFailed:
			logger.Error(c.Request.Context(), "resolve current user failed", "error", res.Err)
			response.Abort(c, http.StatusInternalServerError, "internal server error")
		default:
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, res.Detail)
		}
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

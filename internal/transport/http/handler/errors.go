package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hr-attendance/internal/app"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/transport/http/response"
)

const invalidPayload = "invalid request payload"

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported as "<op> failed".
func writeError(c *gin.Context, logger logging.Logger, op string, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailExists),
		errors.Is(err, app.ErrUsernameExists),
		errors.Is(err, app.ErrUserExists),
		errors.Is(err, app.ErrAlreadyCheckedIn),
		errors.Is(err, app.ErrNotCheckedIn):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		c.Header("WWW-Authenticate", "Bearer")
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		logger.Error(c.Request.Context(), op+" failed", "path", c.FullPath(), "error", err)
		response.Error(c, http.StatusInternalServerError, op+" failed")
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

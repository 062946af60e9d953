package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-attendance/internal/app"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/transport/http/middleware"
	"hr-attendance/internal/transport/http/response"
)

// UserHandler serves the self-service routes; every action is scoped to the
// authenticated caller.
type UserHandler struct {
	attendanceService *app.AttendanceService
	logger            logging.Logger
}

func NewUserHandler(attendanceService *app.AttendanceService, logger logging.Logger) *UserHandler {
	return &UserHandler{attendanceService: attendanceService, logger: logger}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	response.OK(c, newUserView(user))
}

func (h *UserHandler) LastTen(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	records, err := h.attendanceService.ListRecent(c.Request.Context(), user.ID, app.DefaultRecentLimit)
	if err != nil {
		writeError(c, h.logger, "list attendance", err)
		return
	}
	response.OK(c, records)
}

func (h *UserHandler) DailyTotals(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	totals, err := h.attendanceService.DailyTotals(c.Request.Context(), user.ID, queryInt(c, "days", 0))
	if err != nil {
		writeError(c, h.logger, "list daily totals", err)
		return
	}
	response.OK(c, totals)
}

func (h *UserHandler) CheckIn(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	record, err := h.attendanceService.CheckIn(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.logger, "check in", err)
		return
	}
	response.OK(c, record)
}

func (h *UserHandler) CheckOut(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	record, err := h.attendanceService.CheckOut(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.logger, "check out", err)
		return
	}
	response.OK(c, record)
}

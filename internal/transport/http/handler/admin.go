package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-attendance/internal/app"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/model"
	"hr-attendance/internal/transport/http/response"
)

type AdminHandler struct {
	userService       *app.UserService
	attendanceService *app.AttendanceService
	logger            logging.Logger
}

type CreateUserRequest struct {
	Username string     `json:"username" binding:"required,max=64"`
	Email    string     `json:"email" binding:"required,email,max=128"`
	FullName *string    `json:"full_name" binding:"omitempty,max=128"`
	Password string     `json:"password" binding:"required,min=8,max=128"`
	Role     model.Role `json:"role" binding:"omitempty,oneof=user admin"`
}

type UpdateUserRequest struct {
	Username *string     `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string     `json:"email" binding:"omitempty,email,max=128"`
	FullName *string     `json:"full_name" binding:"omitempty,max=128"`
	Password *string     `json:"password" binding:"omitempty,min=8,max=128"`
	Role     *model.Role `json:"role" binding:"omitempty,oneof=user admin"`
}

func NewAdminHandler(userService *app.UserService, attendanceService *app.AttendanceService, logger logging.Logger) *AdminHandler {
	return &AdminHandler{
		userService:       userService,
		attendanceService: attendanceService,
		logger:            logger,
	}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context(), queryInt(c, "skip", 0), queryInt(c, "limit", 0))
	if err != nil {
		writeError(c, h.logger, "list users", err)
		return
	}
	response.OK(c, newUserViews(users))
}

func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, invalidPayload)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), app.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, h.logger, "create user", err)
		return
	}
	response.OK(c, newUserView(user))
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusNotFound, app.ErrUserNotFound.Error())
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, invalidPayload)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, app.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(c, h.logger, "update user", err)
		return
	}
	response.OK(c, newUserView(user))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusNotFound, app.ErrUserNotFound.Error())
		return
	}

	user, err := h.userService.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, "delete user", err)
		return
	}
	response.OK(c, newUserView(user))
}

func (h *AdminHandler) UserAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		response.Error(c, http.StatusNotFound, app.ErrUserNotFound.Error())
		return
	}

	records, err := h.attendanceService.ListForUser(c.Request.Context(), id, queryInt(c, "skip", 0), queryInt(c, "limit", 0))
	if err != nil {
		writeError(c, h.logger, "list user attendance", err)
		return
	}
	response.OK(c, records)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-attendance/internal/app"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
	logger      logging.Logger
}

type SignupRequest struct {
	Username string  `json:"username" binding:"required,max=64"`
	Email    string  `json:"email" binding:"required,email,max=128"`
	FullName *string `json:"full_name" binding:"omitempty,max=128"`
	Password string  `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest binds from JSON or from an OAuth2 password form.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func NewAuthHandler(authService *app.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, invalidPayload)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.logger, "signup", err)
		return
	}

	response.OK(c, newUserView(user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, invalidPayload)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.logger, "login", err)
		return
	}

	response.OK(c, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   int(result.ExpiresIn.Seconds()),
	})
}

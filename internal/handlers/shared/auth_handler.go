package handlers

import (
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
	logger      *logger.Logger
}

func NewAuthHandler(authService services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates an account and returns an access token for it
func (h *AuthHandler) Register(c *gin.Context) {
	var request services.RegisterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	token, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "User registered successfully", token)
}

// Login exchanges email and password for an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", token)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"vouchersync/internal/domain/auth"
	"vouchersync/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login.
type AuthHandler struct {
	BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, expiresAt, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

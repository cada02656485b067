// internal/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"
	"paycheck-tracker/internal/auth"
	"paycheck-tracker/internal/middleware"
	"strings"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{auth: svc}
}

type tokenResponse struct {
	Token    string        `json:"token"`
	Identity auth.Identity `json:"user"`
}

// Register godoc
// @Summary Create an account and sign in
// @Param request body RegisterRequest true "Account"
// @Success 201 {object} tokenResponse
// @Failure 400,409 {object} map[string]string
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, id, err := h.auth.CreateAccount(c.Request.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		respondError(c, err, "Register failed", "email", req.Email)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Token: token, Identity: id})
}

// Login godoc
// @Summary Sign in with email and password
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} tokenResponse
// @Failure 400,401 {object} map[string]string
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if err := validateStruct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, id, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, Identity: id})
}

// Logout godoc
// @Summary Revoke the bearer token
// @Success 200 {object} map[string]string{"status":"ok"}
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}
	if err := h.auth.SignOut(c.Request.Context(), strings.TrimSpace(token)); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Me godoc
// @Summary Current user
// @Success 200 {object} auth.Identity
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		slog.Error("Identity missing from context")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "identity missing"})
		return
	}
	c.JSON(http.StatusOK, id)
}

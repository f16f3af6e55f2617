package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectpulse/backend/internal/middleware"
	"github.com/projectpulse/backend/internal/models"
	"github.com/projectpulse/backend/internal/services"
	"github.com/projectpulse/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SessionUser is the user object returned on login.
type SessionUser struct {
	ID       uint               `json:"id"`
	Name     string             `json:"name"`
	Username string             `json:"username"`
	Email    string             `json:"email"`
	Role     models.Role        `json:"role"`
	Status   *models.UserStatus `json:"status"`
}

type LoginResponse struct {
	Message         string      `json:"message"`
	Token           string      `json:"token"`
	ExpiresAt       time.Time   `json:"expires_at"`
	RefreshToken    string      `json:"refresh_token"`
	RefreshExpireAt time.Time   `json:"refresh_expires_at"`
	User            SessionUser `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register creates an account.
// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	byAdmin := middleware.GetRole(c) == models.RoleAdmin
	user, err := h.authService.Register(&req, byAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"message": "User added successfully",
		"id":      user.ID,
		"status":  user.Status,
	})
}

// Login handles user login
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(&req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	u := res.User
	response.Success(c, LoginResponse{
		Message:         "Login success",
		Token:           res.AccessToken,
		ExpiresAt:       res.AccessExpireAt,
		RefreshToken:    res.RefreshToken,
		RefreshExpireAt: res.RefreshExpireAt,
		User: SessionUser{
			ID:       u.ID,
			Name:     u.Name,
			Username: u.Username,
			Email:    u.Email,
			Role:     u.Role,
			Status:   u.Status,
		},
	})
}

// POST /verify-otp
func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		OTP      string `json:"otp"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.VerifyOtp(req.Username, req.OTP); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Email verified successfully")
}

// POST /resend-otp
func (h *AuthHandler) ResendOtp(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResendOtp(c.Request.Context(), req.Username); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "OTP resent to registered email")
}

// POST /forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ForgotPassword(req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "OTP sent to registered email")
}

// POST /reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(&req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Password reset successful")
}

// Refresh exchanges a refresh token for a new token pair.
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.Refresh(req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":              res.AccessToken,
		"expires_at":         res.AccessExpireAt,
		"refresh_token":      res.RefreshToken,
		"refresh_expires_at": res.RefreshExpireAt,
	})
}

// Logout revokes the refresh token; the access token simply expires.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.authService.RevokeRefreshToken(req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "logged out successfully")
}

// GetCurrentUser returns the current logged-in user
// GET /auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// PUT /auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "old_password and new_password (min 6 characters) are required")
		return
	}
	if err := h.authService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Password changed")
}

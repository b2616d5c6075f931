package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/response"
	"userauth/api/internal/service"
)

const (
	messageRegistered     = "User registered successfully"
	messageLoggedIn       = "Login successful"
	messageTokenRefreshed = "Token refreshed successfully"
	messageLoggedOut      = "Logout successfully"
	messageResetSent      = "A password reset link has been sent to your email address"
	messagePasswordReset  = "Your password has been reset successfully. You can now log in with your new password."
	messagePasswordChange = "Password changed successfully"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.writeError(c, "register", err)
		return
	}

	response.OK(c, messageRegistered, registerResponse{
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	Role         string  `json:"role"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ID           string  `json:"id"`
	Phone        *string `json:"phone"`
	ImageURL     *string `json:"imageUrl"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}

	user := result.User
	response.OK(c, messageLoggedIn, loginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Role:         string(user.Role),
		Name:         user.Name,
		Email:        user.Email,
		ID:           user.ID,
		Phone:        user.Phone,
		ImageURL:     user.ImageURL,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badBody(c)
		return
	}

	issued, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, "refresh_token", err)
		return
	}

	response.OK(c, messageTokenRefreshed, gin.H{"accessToken": issued.Token})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h HandlerSet) Logout(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req logoutRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badBody(c)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), identity.TokenID, identity.ExpiresAt, req.RefreshToken); err != nil {
		h.writeError(c, "logout", err)
		return
	}

	response.OK(c, messageLoggedOut, nil)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	result, err := h.authService.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.writeError(c, "forgot_password", err)
		return
	}

	var data any
	if result.ResetToken != "" {
		data = gin.H{"resetToken": result.ResetToken}
	}
	response.OK(c, messageResetSent, data)
}

type resetPasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	token := strings.TrimSpace(c.Param("token"))
	if err := h.authService.ResetPassword(c.Request.Context(), token, req.NewPassword, req.ConfirmPassword); err != nil {
		h.writeError(c, "reset_password", err)
		return
	}

	response.OK(c, messagePasswordReset, nil)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h HandlerSet) ChangePassword(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeError(c, "change_password", err)
		return
	}

	response.OK(c, messagePasswordChange, nil)
}

// bindOptionalJSON binds the body when one was sent. An empty body leaves
// dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"userauth/api/internal/models"
	"userauth/api/internal/response"
	"userauth/api/internal/service"
)

const (
	messageUserRetrieved  = "User retrived successfully"
	messageUserProfile    = "User profile"
	messageProfileUpdated = "Profile updated successfully"
)

// accountView is the projection returned by check-auth and update-profile.
type accountView struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	ImageURL *string         `json:"imageUrl"`
	Phone    *string         `json:"phone"`
	Role     models.UserRole `json:"role"`
}

func newAccountView(u models.User) accountView {
	return accountView{
		Name:     u.Name,
		Email:    u.Email,
		ImageURL: u.ImageURL,
		Phone:    u.Phone,
		Role:     u.Role,
	}
}

func (h HandlerSet) CheckAuth(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	user, err := h.authService.CheckAuth(c.Request.Context(), identity.UserID)
	if err != nil {
		h.writeError(c, "check_auth", err)
		return
	}

	response.OK(c, messageUserRetrieved, newAccountView(user))
}

func (h HandlerSet) Profile(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), identity.UserID)
	if err != nil {
		h.writeError(c, "profile", err)
		return
	}

	response.OK(c, messageUserProfile, user.Profile())
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	user, err := h.authService.UpdateProfile(c.Request.Context(), identity.UserID, req)
	if err != nil {
		h.writeError(c, "update_profile", err)
		return
	}

	response.OK(c, messageProfileUpdated, newAccountView(user))
}

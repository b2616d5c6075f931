package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/response"
	"userauth/api/internal/service"
)

const (
	messageInvalidBody   = "Invalid request body"
	messageEmailDownData = "Email service temporarily unavailable"
)

var errMissingIdentity = errors.New("authenticated identity missing from request")

var badRequest = []error{
	service.ErrMissingRegistration,
	service.ErrInvalidRole,
	service.ErrUserExists,
	service.ErrInvalidCredentials,
	service.ErrInvalidPassword,
	service.ErrAccountNotFound,
	service.ErrResetFieldsRequired,
	service.ErrPasswordMismatch,
	service.ErrInvalidResetToken,
	service.ErrPasswordsRequired,
	service.ErrPasswordTooShort,
	service.ErrPasswordTooLong,
	service.ErrIncorrectPassword,
	service.ErrNameEmailRequired,
	service.ErrEmailInUse,
	service.ErrImageRequired,
	service.ErrUnsupportedImage,
	service.ErrImageTooLarge,
}

func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrRefreshTokenRequired), errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, service.ErrAvatarsDisabled):
		return http.StatusNotFound, true
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest, true
		}
	}
	return 0, false
}

// writeError maps a workflow error onto the response envelope. User facing
// errors carry their own message; anything else is logged and reported as a
// generic 500.
func (h HandlerSet) writeError(c *gin.Context, workflow string, err error) {
	if errors.Is(err, service.ErrEmailDelivery) {
		response.Fail(c, http.StatusInternalServerError, err.Error(), gin.H{"error": messageEmailDownData})
		return
	}
	if status, ok := statusFor(err); ok && !service.IsInternal(err) {
		response.Fail(c, status, err.Error(), nil)
		return
	}
	h.log.Error().Err(err).Str("workflow", workflow).Msg("request failed")
	response.Internal(c, err)
}

func badBody(c *gin.Context) {
	response.Fail(c, http.StatusBadRequest, messageInvalidBody, nil)
}

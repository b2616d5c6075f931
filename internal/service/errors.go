package service

import (
	"errors"
	"fmt"
)

// User facing outcomes. The text of each error is the message returned to
// clients, so they are returned unwrapped.
var (
	ErrMissingRegistration  = errors.New("Email, name and password are required")
	ErrInvalidRole          = errors.New("Invalid role")
	ErrUserExists           = errors.New("User already exist")
	ErrInvalidCredentials   = errors.New("Invalid email or password")
	ErrInvalidPassword      = errors.New("Invalid password")
	ErrRefreshTokenRequired = errors.New("Unauthorized: refresh token required")
	ErrInvalidRefreshToken  = errors.New("Invalid or expired refresh token")
	ErrAccountNotFound      = errors.New("No Account Found with this email")
	ErrEmailDelivery        = errors.New("Failed to send password reset email. Please try again later.")
	ErrResetFieldsRequired  = errors.New("New password and confirm password are required")
	ErrPasswordMismatch     = errors.New("Password does not match")
	ErrInvalidResetToken    = errors.New("Invalid or expiry reset password token present")
	ErrPasswordsRequired    = errors.New("Current password and new password are required")
	ErrPasswordTooShort     = errors.New("New password is too short")
	ErrPasswordTooLong      = errors.New("Password must be at most 72 bytes")
	ErrUserNotFound         = errors.New("User not found")
	ErrIncorrectPassword    = errors.New("Current password is incorrect")
	ErrNameEmailRequired    = errors.New("Name and email cannot be empty")
	ErrEmailInUse           = errors.New("Email is already in use by another account")
	ErrImageRequired        = errors.New("Image file is required")
	ErrUnsupportedImage     = errors.New("Unsupported image type")
	ErrImageTooLarge        = errors.New("Image file is too large")
	ErrAvatarsDisabled      = errors.New("Profile image upload is not configured")
)

// PasswordLengthError reports a new password shorter than the configured
// minimum. It matches ErrPasswordTooShort with errors.Is.
type PasswordLengthError struct {
	Min int
}

func (e PasswordLengthError) Error() string {
	return fmt.Sprintf("New password must be at least %d characters long", e.Min)
}

func (e PasswordLengthError) Is(target error) bool {
	return target == ErrPasswordTooShort
}

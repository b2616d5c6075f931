package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// PasswordReset is the reset secret stored on a user record. The token and
// its expiry are always written and cleared together.
type PasswordReset struct {
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

// Live reports whether the reset is still usable at now.
func (r *PasswordReset) Live(now time.Time) bool {
	return r != nil && r.ExpiresAt.After(now)
}

type User struct {
	ID           string         `bson:"_id"`
	Email        string         `bson:"email"`
	Name         string         `bson:"name"`
	PasswordHash string         `bson:"password"`
	Role         UserRole       `bson:"role"`
	Phone        *string        `bson:"phone,omitempty"`
	ImageURL     *string        `bson:"imageUrl,omitempty"`
	Reset        *PasswordReset `bson:"resetPassword,omitempty"`
	CreatedAt    time.Time      `bson:"createdAt"`
	UpdatedAt    time.Time      `bson:"updatedAt"`
}

// UserUpdate is a sparse, field-level patch. Unset fields are left untouched.
type UserUpdate struct {
	Name         Optional[string]
	Email        Optional[string]
	Phone        Optional[string]
	ImageURL     Optional[string]
	PasswordHash Optional[string]
	// Reset set to a nil value clears both reset fields.
	Reset Optional[*PasswordReset]
}

// Empty reports whether the update touches no field.
func (u UserUpdate) Empty() bool {
	return !u.Name.Set && !u.Email.Set && !u.Phone.Set &&
		!u.ImageURL.Set && !u.PasswordHash.Set && !u.Reset.Set
}

// Apply returns a copy of user with the update applied.
func (u UserUpdate) Apply(user User) User {
	if u.Name.Set {
		user.Name = u.Name.Value
	}
	if u.Email.Set {
		user.Email = u.Email.Value
	}
	if u.Phone.Set {
		user.Phone = u.Phone.Ptr()
	}
	if u.ImageURL.Set {
		user.ImageURL = u.ImageURL.Ptr()
	}
	if u.PasswordHash.Set {
		user.PasswordHash = u.PasswordHash.Value
	}
	if u.Reset.Set {
		if u.Reset.Null || u.Reset.Value == nil {
			user.Reset = nil
		} else {
			reset := *u.Reset.Value
			user.Reset = &reset
		}
	}
	return user
}

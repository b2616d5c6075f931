package models

// PublicProfile is the user projection returned to clients. It never carries
// the password hash or reset fields.
type PublicProfile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	Phone    *string  `json:"phone"`
	ImageURL *string  `json:"imageUrl"`
}

func (u User) Profile() PublicProfile {
	return PublicProfile{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		Phone:    u.Phone,
		ImageURL: u.ImageURL,
	}
}

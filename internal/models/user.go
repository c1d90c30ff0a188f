package models

import "time"

// Role is the coarse permission class attached to every registered user.
type Role string

const (
	RoleGuest     Role = "guest"
	RoleHost      Role = "host"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleHost, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user (UUID)
	ID string `gorm:"primaryKey;size:36" json:"user_id"`

	// Username is the login name, unique across the system
	Username string `gorm:"uniqueIndex;size:150;not null" json:"username"`

	// Email is unique across the system
	Email string `gorm:"uniqueIndex;size:254;not null" json:"email"`

	FirstName   string `gorm:"size:150" json:"first_name"`
	LastName    string `gorm:"size:150" json:"last_name"`
	PhoneNumber string `gorm:"size:20" json:"phone_number,omitempty"`
	Bio         string `json:"bio,omitempty"`

	// Role decides which gated routes the user may reach
	Role Role `gorm:"size:16;not null" json:"role"`

	// PasswordHash is the bcrypt hash of the user's password
	PasswordHash string `gorm:"not null" json:"-"`

	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUserRequest is the request body for registering a user
type CreateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Bio         string `json:"bio"`
	Role        Role   `json:"role"`
}

// UpdateUserRequest is the request body for a partial user update.
// Nil fields are left untouched.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Bio         *string `json:"bio"`
	Password    *string `json:"password"`

	// Role may only be changed by an admin
	Role *Role `json:"role"`
}

// TokenRequest is the login request body
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest exchanges a refresh token for a new access token
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

package types

import "time"

// Roles understood by the access checks.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an account in the system.
type User struct {
	// Username is the unique login name.
	Username string `json:"username" db:"username"`

	// Role is either RoleAdmin or RoleUser.
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// Older user files may still hold a hex SHA-256 digest, which is
	// upgraded on the next successful login.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent password change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

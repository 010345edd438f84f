package models

import (
	"time"
)

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"    // can view, upload and delete any files
	RoleUploader Role = "UPLOADER" // can view, upload and delete only their files
	RoleViewer   Role = "VIEWER"   // can view only
)

// ParseRole maps a string to a Role. Returns false for unknown values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUploader, RoleViewer:
		return Role(s), true
	}
	return "", false
}

// User is the account row of the user service.
type User struct {
	UserID           string    `json:"user_id" db:"user_id"`
	Username         string    `json:"username" db:"username"`
	Email            string    `json:"email" db:"email"`
	HashedPassword   string    `json:"-" db:"hashed_password"`
	Role             Role      `json:"role" db:"role"`
	StorageAllowance int64     `json:"storage_allowance" db:"storage_allowance"`
	IsActive         bool      `json:"is_active" db:"is_active"`
	JoinedAt         time.Time `json:"joined_at" db:"joined_at"`
}

// UserFilter narrows a user listing. Zero values mean "not filtered".
// Username and Email match by substring, UserID and Role exactly.
type UserFilter struct {
	UserID   string
	Username string
	Email    string
	Role     Role
}

// UserUpdate is a partial update. Nil fields leave the stored value
// untouched, so "not provided" and "set to false" stay distinguishable.
type UserUpdate struct {
	Role             *Role
	StorageAllowance *int64
	IsActive         *bool
}

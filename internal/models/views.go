package models

import (
	"time"
)

// Response views for user records. Role-dependent shaping is done by
// picking a view, never by deleting fields at runtime.

// PublicUserView is what a non-admin sees about an account.
type PublicUserView struct {
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	StorageAllowance int64     `json:"storage_allowance"`
	JoinedAt         time.Time `json:"joined_at"`
}

// AdminUserView adds the fields reserved for admins and the account
// owner themselves.
type AdminUserView struct {
	PublicUserView
	UserID   string `json:"user_id"`
	IsActive bool   `json:"is_active"`
}

func NewPublicUserView(u User) PublicUserView {
	return PublicUserView{
		Username:         u.Username,
		Email:            u.Email,
		Role:             u.Role,
		StorageAllowance: u.StorageAllowance,
		JoinedAt:         u.JoinedAt,
	}
}

func NewAdminUserView(u User) AdminUserView {
	return AdminUserView{
		PublicUserView: NewPublicUserView(u),
		UserID:         u.UserID,
		IsActive:       u.IsActive,
	}
}

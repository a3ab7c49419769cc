package dto

import "github.com/imrysn/kmtifmsv2-sub000/internal/app/models"

// CreateUserRequest creates a user (admin only)
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName" binding:"required,max=100"`
	RoleType string `json:"roleType" binding:"required,oneof=USER TEAM_LEADER ADMIN"`
	Team     string `json:"team" binding:"max=100"`
}

// UpdateUserRequest updates user attributes (admin only)
type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"fullName" binding:"omitempty,max=100"`
	RoleType *string `json:"roleType" binding:"omitempty,oneof=USER TEAM_LEADER ADMIN"`
	Team     *string `json:"team" binding:"omitempty,max=100"`
	IsActive *bool   `json:"isActive"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []models.User  `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

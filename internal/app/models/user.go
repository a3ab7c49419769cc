package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`                                                  // Unique identifier for the user
	Username    string     `json:"username" db:"username" example:"jdoe"`                                   // Login name, unique
	Email       string     `json:"email" db:"email" example:"jdoe@kmti.com"`                                // User's email address
	Password    string     `json:"-" db:"password"`                                                         // Hashed password (excluded from JSON)
	FullName    string     `json:"fullName" db:"full_name" example:"John Doe"`                              // Display name
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"USER"`                                  // USER, TEAM_LEADER or ADMIN
	Team        string     `json:"team" db:"team" example:"Design"`                                         // Team the user belongs to
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`                                  // Whether the account is active
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2025-04-20T18:00:00Z"` // Timestamp of the last login (nullable)
	CreatedAt   time.Time  `json:"createdAt" db:"created_at" example:"2025-01-01T10:00:00Z"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at" example:"2025-01-02T15:30:00Z"`
}

// RefreshToken defines a persisted refresh token based on the 'refresh_tokens' table
type RefreshToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

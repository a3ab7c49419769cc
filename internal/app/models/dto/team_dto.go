package dto

// CreateTeamRequest creates a team (admin only)
type CreateTeamRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	LeaderID    *int64 `json:"leaderId"`
}

// UpdateTeamRequest updates a team (admin only)
type UpdateTeamRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	LeaderID    *int64  `json:"leaderId"`
}

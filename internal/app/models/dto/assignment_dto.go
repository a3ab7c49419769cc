package dto

import (
	"time"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
)

// CreateAssignmentRequest hands a task to a user
type CreateAssignmentRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	AssignedTo  int64      `json:"assignedTo" binding:"required"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=normal high urgent"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateAssignmentStatusRequest moves an assignment between states
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in_progress done"`
}

// AddAssignmentCommentRequest comments on an assignment
type AddAssignmentCommentRequest struct {
	Comment string `json:"comment" binding:"required,max=2000"`
}

// AssignmentListResponse represents a page of assignments
type AssignmentListResponse struct {
	Assignments []models.Assignment `json:"assignments"`
	Pagination  PaginationInfo      `json:"pagination"`
}

package dto

import (
	"time"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
)

// UploadFileRequest carries the multipart form fields accompanying an upload
type UploadFileRequest struct {
	Description string `form:"description" binding:"max=1000"`
	Replace     bool   `form:"replace"`
}

// FileFilterRequest represents filtering options for listing files
type FileFilterRequest struct {
	Status   *string `form:"status"`
	Stage    *string `form:"stage"`
	Team     *string `form:"team"`
	UserID   *int64  `form:"userId"`
	Search   *string `form:"search"`
	SortBy   string  `form:"sortBy"`
	SortDir  string  `form:"sortDir"`
	Page     int     `form:"page"`
	PageSize int     `form:"size"`
}

// UpdateFileRequest updates metadata outside the approval pipeline
type UpdateFileRequest struct {
	Description *string    `json:"description" binding:"omitempty,max=1000"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=normal high urgent"`
	DueDate     *time.Time `json:"dueDate"`
}

// AddFileCommentRequest creates an ad hoc comment on a file
type AddFileCommentRequest struct {
	Comment string `json:"comment" binding:"required,max=2000"`
}

// DuplicateFileData is the 409 payload on a duplicate upload
type DuplicateFileData struct {
	ExistingFile *models.File `json:"existingFile"`
}

// FileListResponse represents a page of files
type FileListResponse struct {
	Files      []models.File  `json:"files"`
	Pagination PaginationInfo `json:"pagination"`
}

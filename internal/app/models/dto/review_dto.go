package dto

import "github.com/imrysn/kmtifmsv2-sub000/internal/app/models"

// ReviewRequest carries a single review decision
type ReviewRequest struct {
	Action   string `json:"action" binding:"required,oneof=approve reject"`
	Comments string `json:"comments" binding:"max=2000"`
}

// ReviewResponse returns the file after a transition
type ReviewResponse struct {
	File *models.File `json:"file"`
}

// MoveToProjectsRequest asks for a copy of an approved file into the
// projects network share
type MoveToProjectsRequest struct {
	DestinationPath string `json:"destinationPath" binding:"required"`
}

// MoveToProjectsResponse reports where the file landed
type MoveToProjectsResponse struct {
	DestinationPath string `json:"destinationPath"`
}

// BulkActionRequest applies one review decision to many files
type BulkActionRequest struct {
	FileIDs  []int64 `json:"fileIds" binding:"required,min=1"`
	Action   string  `json:"action" binding:"required,oneof=approve reject"`
	Comments string  `json:"comments" binding:"max=2000"`
}

// BulkFileError describes one failed file in a bulk action
type BulkFileError struct {
	FileID int64  `json:"fileId"`
	Reason string `json:"reason"`
}

// BulkActionResults accumulates per-file outcomes; len(Success)+len(Failed)
// always equals the number of requested ids
type BulkActionResults struct {
	Success []int64         `json:"success"`
	Failed  []BulkFileError `json:"failed"`
}

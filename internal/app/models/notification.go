package models

import "time"

// Notification is a message addressed to a user, based on the
// 'notifications' table. Mutated only to flip IsRead.
type Notification struct {
	ID           int64            `json:"id" db:"id"`
	UserID       int64            `json:"userId" db:"user_id"`
	Type         NotificationType `json:"type" db:"type"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	FileID       *int64           `json:"fileId,omitempty" db:"file_id"`
	AssignmentID *int64           `json:"assignmentId,omitempty" db:"assignment_id"`
	IsRead       bool             `json:"isRead" db:"is_read"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
}

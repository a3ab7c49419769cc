package models

import "time"

// AssignmentStatus tracks task progress
type AssignmentStatus string

const (
	AssignmentTodo       AssignmentStatus = "todo"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentDone       AssignmentStatus = "done"
)

// Assignment defines a task handed to a user, based on the 'assignments' table
type Assignment struct {
	ID          int64            `json:"id" db:"id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	AssignedTo  int64            `json:"assignedTo" db:"assigned_to"`
	AssignedBy  int64            `json:"assignedBy" db:"assigned_by"`
	Team        string           `json:"team" db:"team"`
	Status      AssignmentStatus `json:"status" db:"status"`
	Priority    Priority         `json:"priority" db:"priority"`
	DueDate     *time.Time       `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// AssignmentComment is a remark on an assignment, based on the
// 'assignment_comments' table
type AssignmentComment struct {
	ID           int64     `json:"id" db:"id"`
	AssignmentID int64     `json:"assignmentId" db:"assignment_id"`
	UserID       int64     `json:"userId" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Comment      string    `json:"comment" db:"comment"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

package models

// RoleType defines the user role type
type RoleType string

const (
	RoleUser       RoleType = "USER"
	RoleTeamLeader RoleType = "TEAM_LEADER"
	RoleAdmin      RoleType = "ADMIN"
)

// Priority defines the urgency attached to a file or assignment
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// CommentType classifies file comments
type CommentType string

const (
	CommentTypePlain     CommentType = "plain"
	CommentTypeApproval  CommentType = "approval"
	CommentTypeRejection CommentType = "rejection"
)

// NotificationType classifies notifications
type NotificationType string

const (
	NotificationFileApproved   NotificationType = "file_approved"
	NotificationFileRejected   NotificationType = "file_rejected"
	NotificationFileComment    NotificationType = "file_comment"
	NotificationAssignment     NotificationType = "assignment"
	NotificationAssignmentNote NotificationType = "assignment_comment"
)

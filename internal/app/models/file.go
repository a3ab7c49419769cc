package models

import (
	"time"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
)

// File represents one uploaded artifact under review, based on the 'files'
// table. Status is canonical; CurrentStage is persisted alongside it for the
// API but is always derived from Status on write.
type File struct {
	ID           int64  `json:"id" db:"id"`
	Filename     string `json:"filename" db:"filename"`          // Stored (unique) name on disk
	OriginalName string `json:"originalName" db:"original_name"` // Name the client uploaded
	FilePath     string `json:"filePath" db:"file_path"`         // Path relative to the storage root
	FileSize     int64  `json:"fileSize" db:"file_size"`
	FileType     string `json:"fileType" db:"file_type"` // MIME type
	Description  string `json:"description" db:"description"`

	UserID   int64  `json:"userId" db:"user_id"`
	Username string `json:"username" db:"username"`
	Team     string `json:"team" db:"team"`

	Status       workflow.Status `json:"status" db:"status"`
	CurrentStage workflow.Stage  `json:"currentStage" db:"current_stage"`

	Priority Priority   `json:"priority" db:"priority"`
	DueDate  *time.Time `json:"dueDate,omitempty" db:"due_date"`

	TeamLeaderID         *int64     `json:"teamLeaderId,omitempty" db:"team_leader_id"`
	TeamLeaderUsername   *string    `json:"teamLeaderUsername,omitempty" db:"team_leader_username"`
	TeamLeaderReviewedAt *time.Time `json:"teamLeaderReviewedAt,omitempty" db:"team_leader_reviewed_at"`
	TeamLeaderComments   *string    `json:"teamLeaderComments,omitempty" db:"team_leader_comments"`

	AdminID         *int64     `json:"adminId,omitempty" db:"admin_id"`
	AdminUsername   *string    `json:"adminUsername,omitempty" db:"admin_username"`
	AdminReviewedAt *time.Time `json:"adminReviewedAt,omitempty" db:"admin_reviewed_at"`
	AdminComments   *string    `json:"adminComments,omitempty" db:"admin_comments"`

	RejectionReason *string    `json:"rejectionReason,omitempty" db:"rejection_reason"`
	RejectedBy      *string    `json:"rejectedBy,omitempty" db:"rejected_by"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty" db:"rejected_at"`

	PublicNetworkURL *string    `json:"publicNetworkUrl,omitempty" db:"public_network_url"`
	ProjectsPath     *string    `json:"projectsPath,omitempty" db:"projects_path"`
	FinalApprovedAt  *time.Time `json:"finalApprovedAt,omitempty" db:"final_approved_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FileComment is a timestamped remark tied to a file, based on the
// 'file_comments' table. Never updated after creation.
type FileComment struct {
	ID          int64       `json:"id" db:"id"`
	FileID      int64       `json:"fileId" db:"file_id"`
	UserID      int64       `json:"userId" db:"user_id"`
	Username    string      `json:"username" db:"username"`
	Comment     string      `json:"comment" db:"comment"`
	CommentType CommentType `json:"commentType" db:"comment_type"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
}

// FileStatusHistory is one append-only audit row per review transition,
// based on the 'file_status_history' table.
type FileStatusHistory struct {
	ID                int64           `json:"id" db:"id"`
	FileID            int64           `json:"fileId" db:"file_id"`
	OldStatus         workflow.Status `json:"oldStatus" db:"old_status"`
	NewStatus         workflow.Status `json:"newStatus" db:"new_status"`
	OldStage          workflow.Stage  `json:"oldStage" db:"old_stage"`
	NewStage          workflow.Stage  `json:"newStage" db:"new_stage"`
	ChangedByID       int64           `json:"changedById" db:"changed_by_id"`
	ChangedByUsername string          `json:"changedByUsername" db:"changed_by_username"`
	ChangedByRole     RoleType        `json:"changedByRole" db:"changed_by_role"`
	Comment           *string         `json:"comment,omitempty" db:"comment"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
}

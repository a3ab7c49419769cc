package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/dberrors"
)

// fileColumns is the canonical column list scanned by scanFile.
const fileColumns = `id, filename, original_name, file_path, file_size, file_type, description,
	user_id, username, team, status, current_stage, priority, due_date,
	team_leader_id, team_leader_username, team_leader_reviewed_at, team_leader_comments,
	admin_id, admin_username, admin_reviewed_at, admin_comments,
	rejection_reason, rejected_by, rejected_at,
	public_network_url, projects_path, final_approved_at,
	created_at, updated_at`

// FileRepository handles database operations for files
type FileRepository struct {
	db DB
	sb squirrel.StatementBuilderType
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(db DB) *FileRepository {
	return &FileRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FileFilter carries the filtering and pagination options for GetAll
type FileFilter struct {
	Status   *string
	Stage    *string
	Team     *string
	UserID   *int64
	Search   *string
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID, &f.Filename, &f.OriginalName, &f.FilePath, &f.FileSize, &f.FileType, &f.Description,
		&f.UserID, &f.Username, &f.Team, &f.Status, &f.CurrentStage, &f.Priority, &f.DueDate,
		&f.TeamLeaderID, &f.TeamLeaderUsername, &f.TeamLeaderReviewedAt, &f.TeamLeaderComments,
		&f.AdminID, &f.AdminUsername, &f.AdminReviewedAt, &f.AdminComments,
		&f.RejectionReason, &f.RejectedBy, &f.RejectedAt,
		&f.PublicNetworkURL, &f.ProjectsPath, &f.FinalApprovedAt,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new file and returns its ID
func (r *FileRepository) Create(ctx context.Context, file *models.File) (int64, error) {
	query := `
		INSERT INTO files (filename, original_name, file_path, file_size, file_type, description,
			user_id, username, team, status, current_stage, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		file.Filename,
		file.OriginalName,
		file.FilePath,
		file.FileSize,
		file.FileType,
		file.Description,
		file.UserID,
		file.Username,
		file.Team,
		file.Status,
		file.CurrentStage,
		file.Priority,
		file.DueDate,
	).Scan(&id)

	if err != nil {
		// Two uploads of the same name can race past the duplicate lookup;
		// the unique constraint catches the loser
		if dberrors.IsDuplicateConstraintError(err, "files_owner_name_unique") {
			return 0, apperrors.ErrDuplicateFile
		}
		return 0, fmt.Errorf("error creating file: %w", err)
	}

	return id, nil
}

// GetByID retrieves a file by ID
func (r *FileRepository) GetByID(ctx context.Context, id int64) (*models.File, error) {
	query := fmt.Sprintf("SELECT %s FROM files WHERE id = $1", fileColumns)

	file, err := scanFile(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFileNotFound
		}
		return nil, fmt.Errorf("error getting file: %w", err)
	}

	return file, nil
}

// FindByOwnerAndName looks up a file by owner and the original upload name.
// Used to detect duplicate uploads.
func (r *FileRepository) FindByOwnerAndName(ctx context.Context, userID int64, originalName string) (*models.File, error) {
	query := fmt.Sprintf("SELECT %s FROM files WHERE user_id = $1 AND original_name = $2", fileColumns)

	file, err := scanFile(r.db.QueryRow(ctx, query, userID, originalName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFileNotFound
		}
		return nil, fmt.Errorf("error finding file by name: %w", err)
	}

	return file, nil
}

// sortColumns whitelists the columns GetAll may order by.
var sortColumns = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"originalName": "original_name",
	"fileSize":     "file_size",
	"priority":     "priority",
	"dueDate":      "due_date",
	"status":       "status",
}

// GetAll retrieves files with filtering, sorting and pagination
func (r *FileRepository) GetAll(ctx context.Context, filter FileFilter) ([]models.File, int64, error) {
	cols := strings.Split(fileColumns, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	baseSelect := r.sb.Select(cols...).From("files")
	countSelect := r.sb.Select("COUNT(*)").From("files")

	where := squirrel.And{}
	if filter.Status != nil && *filter.Status != "" {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Stage != nil && *filter.Stage != "" {
		where = append(where, squirrel.Eq{"current_stage": *filter.Stage})
	}
	if filter.Team != nil && *filter.Team != "" {
		where = append(where, squirrel.Eq{"team": *filter.Team})
	}
	if filter.UserID != nil {
		where = append(where, squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + strings.TrimSpace(*filter.Search) + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"original_name": pattern},
			squirrel.ILike{"description": pattern},
			squirrel.ILike{"username": pattern},
		})
	}

	if len(where) > 0 {
		baseSelect = baseSelect.Where(where)
		countSelect = countSelect.Where(where)
	}

	countSql, countArgs, err := countSelect.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count files query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting files: %w", err)
	}

	orderBy := "created_at"
	if col, ok := sortColumns[filter.SortBy]; ok {
		orderBy = col
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortDir, "asc") {
		direction = "ASC"
	}

	offset := uint64((filter.Page - 1) * filter.PageSize)
	baseSelect = baseSelect.
		OrderBy(orderBy + " " + direction).
		Limit(uint64(filter.PageSize)).
		Offset(offset)

	listSql, listArgs, err := baseSelect.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list files query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSql, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning file row: %w", err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating file rows: %w", err)
	}

	return files, total, nil
}

// ReviewUpdate describes one workflow transition to be applied to a file.
// ExpectedStage guards against concurrent transitions: the UPDATE only
// matches while the file is still in that stage.
type ReviewUpdate struct {
	FileID           int64
	ExpectedStage    workflow.Stage
	NewStatus        workflow.Status
	NewStage         workflow.Stage
	ReviewerID       int64
	ReviewerUsername string
	ReviewerRole     workflow.ReviewerRole
	Comments         *string
	ReviewedAt       time.Time
}

// ApplyReview applies a review transition on q (normally an open transaction).
// Returns workflow.ErrInvalidStage when the file is no longer in the
// expected stage.
func (r *FileRepository) ApplyReview(ctx context.Context, q Querier, u ReviewUpdate) error {
	update := r.sb.Update("files").
		Set("status", u.NewStatus).
		Set("current_stage", u.NewStage).
		Set("updated_at", u.ReviewedAt)

	switch u.ReviewerRole {
	case workflow.ReviewerTeamLeader:
		update = update.
			Set("team_leader_id", u.ReviewerID).
			Set("team_leader_username", u.ReviewerUsername).
			Set("team_leader_reviewed_at", u.ReviewedAt).
			Set("team_leader_comments", u.Comments)
	case workflow.ReviewerAdmin:
		update = update.
			Set("admin_id", u.ReviewerID).
			Set("admin_username", u.ReviewerUsername).
			Set("admin_reviewed_at", u.ReviewedAt).
			Set("admin_comments", u.Comments)
	default:
		return workflow.ErrInvalidRole
	}

	if u.NewStatus.IsRejection() {
		update = update.
			Set("rejection_reason", u.Comments).
			Set("rejected_by", u.ReviewerUsername).
			Set("rejected_at", u.ReviewedAt)
	}
	if u.NewStatus == workflow.StatusFinalApproved {
		update = update.Set("final_approved_at", u.ReviewedAt)
	}

	update = update.Where(squirrel.Eq{
		"id":            u.FileID,
		"current_stage": u.ExpectedStage,
	})

	sql, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build review update query: %w", err)
	}

	result, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error applying review: %w", err)
	}

	if result.RowsAffected() == 0 {
		return workflow.ErrInvalidStage
	}

	return nil
}

// SetProjectsLocation records where a final approved file was published.
// The guard on stage and a NULL projects_path makes the move single-shot.
func (r *FileRepository) SetProjectsLocation(ctx context.Context, q Querier, fileID int64, projectsPath, publicURL string) error {
	query := `
		UPDATE files
		SET projects_path = $1, public_network_url = $2, updated_at = NOW()
		WHERE id = $3 AND current_stage = $4 AND projects_path IS NULL
	`

	result, err := q.Exec(ctx, query, projectsPath, publicURL, fileID, workflow.StagePublishedToPublic)
	if err != nil {
		return fmt.Errorf("error recording projects location: %w", err)
	}

	if result.RowsAffected() == 0 {
		return workflow.ErrInvalidStage
	}

	return nil
}

// ReplaceUpload overwrites the stored object for an existing file and
// resets the review pipeline back to the start.
func (r *FileRepository) ReplaceUpload(ctx context.Context, file *models.File) error {
	query := `
		UPDATE files
		SET filename = $1, file_path = $2, file_size = $3, file_type = $4, description = $5,
			status = $6, current_stage = $7,
			team_leader_id = NULL, team_leader_username = NULL, team_leader_reviewed_at = NULL, team_leader_comments = NULL,
			admin_id = NULL, admin_username = NULL, admin_reviewed_at = NULL, admin_comments = NULL,
			rejection_reason = NULL, rejected_by = NULL, rejected_at = NULL,
			public_network_url = NULL, projects_path = NULL, final_approved_at = NULL,
			updated_at = NOW()
		WHERE id = $8
	`

	result, err := r.db.Exec(ctx, query,
		file.Filename,
		file.FilePath,
		file.FileSize,
		file.FileType,
		file.Description,
		workflow.StatusUploaded,
		workflow.StagePendingTeamLeader,
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("error replacing file upload: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrFileNotFound
	}

	return nil
}

// UpdateMetadata patches description, priority and due date
func (r *FileRepository) UpdateMetadata(ctx context.Context, id int64, description *string, priority *models.Priority, dueDate *time.Time) error {
	update := r.sb.Update("files").Set("updated_at", time.Now())

	if description != nil {
		update = update.Set("description", *description)
	}
	if priority != nil {
		update = update.Set("priority", *priority)
	}
	if dueDate != nil {
		update = update.Set("due_date", *dueDate)
	}

	update = update.Where(squirrel.Eq{"id": id})

	sql, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build metadata update query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating file metadata: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrFileNotFound
	}

	return nil
}

// Delete removes a file row
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrFileNotFound
	}

	return nil
}

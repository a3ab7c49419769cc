package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
)

const assignmentColumns = `id, title, description, assigned_to, assigned_by, team, status, priority, due_date, created_at, updated_at`

// AssignmentRepository handles database operations for assignments
type AssignmentRepository struct {
	db DB
	sb squirrel.StatementBuilderType
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.AssignedTo, &a.AssignedBy,
		&a.Team, &a.Status, &a.Priority, &a.DueDate,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new assignment and sets its ID
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (title, description, assigned_to, assigned_by, team, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		a.Title, a.Description, a.AssignedTo, a.AssignedBy,
		a.Team, a.Status, a.Priority, a.DueDate,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("error creating assignment: %w", err)
	}

	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*models.Assignment, error) {
	query := fmt.Sprintf("SELECT %s FROM assignments WHERE id = $1", assignmentColumns)

	a, err := scanAssignment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("error getting assignment: %w", err)
	}

	return a, nil
}

// GetAll retrieves assignments with optional assignee, team and status filters
func (r *AssignmentRepository) GetAll(ctx context.Context, assignedTo *int64, team *string, status *string, page, pageSize int) ([]models.Assignment, int64, error) {
	baseSelect := r.sb.Select(
		"id", "title", "description", "assigned_to", "assigned_by",
		"team", "status", "priority", "due_date", "created_at", "updated_at",
	).From("assignments")
	countSelect := r.sb.Select("COUNT(*)").From("assignments")

	where := squirrel.And{}
	if assignedTo != nil {
		where = append(where, squirrel.Eq{"assigned_to": *assignedTo})
	}
	if team != nil && *team != "" {
		where = append(where, squirrel.Eq{"team": *team})
	}
	if status != nil && *status != "" {
		where = append(where, squirrel.Eq{"status": *status})
	}

	if len(where) > 0 {
		baseSelect = baseSelect.Where(where)
		countSelect = countSelect.Where(where)
	}

	countSql, countArgs, err := countSelect.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count assignments query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSql, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting assignments: %w", err)
	}

	offset := uint64((page - 1) * pageSize)
	listSql, listArgs, err := baseSelect.
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list assignments query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSql, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning assignment row: %w", err)
		}
		assignments = append(assignments, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating assignment rows: %w", err)
	}

	return assignments, total, nil
}

// UpdateStatus moves an assignment between todo, in_progress and done
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AssignmentStatus) error {
	result, err := r.db.Exec(ctx,
		`UPDATE assignments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("error updating assignment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}

	return nil
}

// Update updates an assignment's fields
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	query := `
		UPDATE assignments
		SET title = $1, description = $2, assigned_to = $3, team = $4,
			status = $5, priority = $6, due_date = $7, updated_at = NOW()
		WHERE id = $8
	`

	result, err := r.db.Exec(ctx, query,
		a.Title, a.Description, a.AssignedTo, a.Team,
		a.Status, a.Priority, a.DueDate, a.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}

	return nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting assignment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrAssignmentNotFound
	}

	return nil
}

// AddComment inserts a comment on an assignment
func (r *AssignmentRepository) AddComment(ctx context.Context, c *models.AssignmentComment) error {
	query := `
		INSERT INTO assignment_comments (assignment_id, user_id, username, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, c.AssignmentID, c.UserID, c.Username, c.Comment).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("error creating assignment comment: %w", err)
	}

	return nil
}

// GetComments retrieves all comments on an assignment, oldest first
func (r *AssignmentRepository) GetComments(ctx context.Context, assignmentID int64) ([]models.AssignmentComment, error) {
	query := `
		SELECT id, assignment_id, user_id, username, comment, created_at
		FROM assignment_comments
		WHERE assignment_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("error getting assignment comments: %w", err)
	}
	defer rows.Close()

	comments := []models.AssignmentComment{}
	for rows.Next() {
		var c models.AssignmentComment
		if err := rows.Scan(&c.ID, &c.AssignmentID, &c.UserID, &c.Username, &c.Comment, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning assignment comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment comments: %w", err)
	}

	return comments, nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
)

// FileCommentRepository handles database operations for file comments
type FileCommentRepository struct {
	db DB
}

// NewFileCommentRepository creates a new FileCommentRepository
func NewFileCommentRepository(db DB) *FileCommentRepository {
	return &FileCommentRepository{db: db}
}

// Create inserts a comment on q, which may be an open transaction
func (r *FileCommentRepository) Create(ctx context.Context, q Querier, comment *models.FileComment) (int64, error) {
	query := `
		INSERT INTO file_comments (file_id, user_id, username, comment, comment_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		comment.FileID,
		comment.UserID,
		comment.Username,
		comment.Comment,
		comment.CommentType,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating file comment: %w", err)
	}

	return id, nil
}

// GetByFileID retrieves all comments for a file, oldest first
func (r *FileCommentRepository) GetByFileID(ctx context.Context, fileID int64) ([]models.FileComment, error) {
	query := `
		SELECT id, file_id, user_id, username, comment, comment_type, created_at
		FROM file_comments
		WHERE file_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("error getting file comments: %w", err)
	}
	defer rows.Close()

	comments := []models.FileComment{}
	for rows.Next() {
		var c models.FileComment
		if err := rows.Scan(&c.ID, &c.FileID, &c.UserID, &c.Username, &c.Comment, &c.CommentType, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning file comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file comments: %w", err)
	}

	return comments, nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
)

// FileHistoryRepository handles the append-only file status audit log
type FileHistoryRepository struct {
	db DB
}

// NewFileHistoryRepository creates a new FileHistoryRepository
func NewFileHistoryRepository(db DB) *FileHistoryRepository {
	return &FileHistoryRepository{db: db}
}

// Create appends one audit row on q, which may be an open transaction
func (r *FileHistoryRepository) Create(ctx context.Context, q Querier, entry *models.FileStatusHistory) (int64, error) {
	query := `
		INSERT INTO file_status_history (file_id, old_status, new_status, old_stage, new_stage,
			changed_by_id, changed_by_username, changed_by_role, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := q.QueryRow(ctx, query,
		entry.FileID,
		entry.OldStatus,
		entry.NewStatus,
		entry.OldStage,
		entry.NewStage,
		entry.ChangedByID,
		entry.ChangedByUsername,
		entry.ChangedByRole,
		entry.Comment,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("error creating status history entry: %w", err)
	}

	return id, nil
}

// GetByFileID retrieves the full audit trail for a file, oldest first
func (r *FileHistoryRepository) GetByFileID(ctx context.Context, fileID int64) ([]models.FileStatusHistory, error) {
	query := `
		SELECT id, file_id, old_status, new_status, old_stage, new_stage,
			changed_by_id, changed_by_username, changed_by_role, comment, created_at
		FROM file_status_history
		WHERE file_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("error getting status history: %w", err)
	}
	defer rows.Close()

	entries := []models.FileStatusHistory{}
	for rows.Next() {
		var e models.FileStatusHistory
		if err := rows.Scan(
			&e.ID, &e.FileID, &e.OldStatus, &e.NewStatus, &e.OldStage, &e.NewStage,
			&e.ChangedByID, &e.ChangedByUsername, &e.ChangedByRole, &e.Comment, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning status history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return entries, nil
}

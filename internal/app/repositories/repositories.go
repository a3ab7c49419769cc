package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by a pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the connection surface repositories are built on. *pgxpool.Pool
// satisfies it, as does the pgxmock pool used in tests.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TeamRepository         *TeamRepository
	TokenRepository        *TokenRepository
	FileRepository         *FileRepository
	FileCommentRepository  *FileCommentRepository
	FileHistoryRepository  *FileHistoryRepository
	NotificationRepository *NotificationRepository
	AssignmentRepository   *AssignmentRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		TeamRepository:         NewTeamRepository(db),
		TokenRepository:        NewTokenRepository(db),
		FileRepository:         NewFileRepository(db),
		FileCommentRepository:  NewFileCommentRepository(db),
		FileHistoryRepository:  NewFileHistoryRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		AssignmentRepository:   NewAssignmentRepository(db),
	}
}

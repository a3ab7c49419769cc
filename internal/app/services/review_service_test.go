package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/filestorage"
)

var fileColumnNames = []string{
	"id", "filename", "original_name", "file_path", "file_size", "file_type", "description",
	"user_id", "username", "team", "status", "current_stage", "priority", "due_date",
	"team_leader_id", "team_leader_username", "team_leader_reviewed_at", "team_leader_comments",
	"admin_id", "admin_username", "admin_reviewed_at", "admin_comments",
	"rejection_reason", "rejected_by", "rejected_at",
	"public_network_url", "projects_path", "final_approved_at",
	"created_at", "updated_at",
}

var userColumnNames = []string{
	"id", "username", "email", "password", "full_name", "role_type", "team",
	"is_active", "last_login_at", "created_at", "updated_at",
}

// fileRows builds one mock result row for a file in the given state.
func fileRows(id int64, status workflow.Status, stage workflow.Stage) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(fileColumnNames).AddRow(
		id, "drawing.dwg", "drawing.dwg", "alice/drawing.dwg", int64(2048), "application/acad", "",
		int64(3), "alice", "alpha", status, stage, models.PriorityNormal, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil,
		now, now,
	)
}

func newReviewServiceForTest(t *testing.T, mock pgxmock.PgxPoolIface, storage filestorage.FileStorage, projectsRoot string) ReviewService {
	t.Helper()
	return NewReviewService(
		mock,
		repositories.NewFileRepository(mock),
		repositories.NewFileCommentRepository(mock),
		repositories.NewFileHistoryRepository(mock),
		repositories.NewNotificationRepository(mock),
		repositories.NewUserRepository(mock),
		storage,
		projectsRoot,
		nil,
		zerolog.Nop(),
	)
}

func TestReviewTeamLeaderApprove(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	reviewer := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE files").
		WithArgs(
			workflow.StatusTeamLeaderApproved, workflow.StagePendingAdmin, pgxmock.AnyArg(),
			int64(7), "lead", pgxmock.AnyArg(), pgxmock.AnyArg(),
			workflow.StagePendingTeamLeader, int64(42),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO file_comments").
		WithArgs(int64(42), int64(7), "lead", "Looks good", models.CommentTypeApproval).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO file_status_history").
		WithArgs(
			int64(42), workflow.StatusUploaded, workflow.StatusTeamLeaderApproved,
			workflow.StagePendingTeamLeader, workflow.StagePendingAdmin,
			int64(7), "lead", models.RoleTeamLeader, pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	// A team leader approval notifies the owner and every active admin
	now := time.Now()
	mock.ExpectQuery("FROM users WHERE role_type").
		WithArgs(models.RoleAdmin).
		WillReturnRows(pgxmock.NewRows(userColumnNames).AddRow(
			int64(9), "boss", "boss@kmtifms.local", "x", "The Boss", models.RoleAdmin, "",
			true, nil, now, now,
		))
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(int64(3), models.NotificationFileApproved, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(int64(9), models.NotificationFileApproved, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusTeamLeaderApproved, workflow.StagePendingAdmin))

	file, err := svc.Review(context.Background(), 42, reviewer, workflow.ReviewerTeamLeader, &dto.ReviewRequest{
		Action:   "approve",
		Comments: "Looks good",
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusTeamLeaderApproved, file.Status)
	assert.Equal(t, workflow.StagePendingAdmin, file.CurrentStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAdminOnPendingTeamLeaderFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	admin := &models.User{ID: 9, Username: "boss", RoleType: models.RoleAdmin}

	// The file has not cleared team leader review yet, so the admin
	// decision must be refused before any write happens.
	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	_, err = svc.Review(context.Background(), 42, admin, workflow.ReviewerAdmin, &dto.ReviewRequest{Action: "approve"})
	assert.ErrorIs(t, err, workflow.ErrInvalidStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewLostRaceRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	reviewer := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	// Another reviewer got there first: the stage guard matches no rows
	// and the whole transaction rolls back.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE files").
		WithArgs(
			workflow.StatusTeamLeaderApproved, workflow.StagePendingAdmin, pgxmock.AnyArg(),
			int64(7), "lead", pgxmock.AnyArg(), pgxmock.AnyArg(),
			workflow.StagePendingTeamLeader, int64(42),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err = svc.Review(context.Background(), 42, reviewer, workflow.ReviewerTeamLeader, &dto.ReviewRequest{Action: "approve", Comments: "ok"})
	assert.ErrorIs(t, err, workflow.ErrInvalidStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRejectDefaultsReason(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	reviewer := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE files").
		WithArgs(
			workflow.StatusRejectedByTeamLeader, workflow.StageRejectedByTeamLeader, pgxmock.AnyArg(),
			int64(7), "lead", pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), "lead", pgxmock.AnyArg(),
			workflow.StagePendingTeamLeader, int64(42),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	// A rejection without comments still records a reason
	mock.ExpectQuery("INSERT INTO file_comments").
		WithArgs(int64(42), int64(7), "lead", "Rejected by Team Leader", models.CommentTypeRejection).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO file_status_history").
		WithArgs(
			int64(42), workflow.StatusUploaded, workflow.StatusRejectedByTeamLeader,
			workflow.StagePendingTeamLeader, workflow.StageRejectedByTeamLeader,
			int64(7), "lead", models.RoleTeamLeader, pgxmock.AnyArg(),
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO notifications").
		WithArgs(int64(3), models.NotificationFileRejected, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusRejectedByTeamLeader, workflow.StageRejectedByTeamLeader))

	file, err := svc.Review(context.Background(), 42, reviewer, workflow.ReviewerTeamLeader, &dto.ReviewRequest{Action: "reject"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRejectedByTeamLeader, file.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkReviewInvalidAction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	reviewer := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader}

	_, err = svc.BulkReview(context.Background(), reviewer, workflow.ReviewerTeamLeader, &dto.BulkActionRequest{
		FileIDs: []int64{1, 2},
		Action:  "promote",
	})
	assert.ErrorIs(t, err, workflow.ErrInvalidAction)
}

func TestBulkReviewAccountsEveryFile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, "")
	reviewer := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"}

	// Both files are gone; each failure is reported, none aborts the batch.
	mock.ExpectQuery("FROM files WHERE id").WithArgs(int64(1)).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM files WHERE id").WithArgs(int64(2)).WillReturnError(pgx.ErrNoRows)

	results, err := svc.BulkReview(context.Background(), reviewer, workflow.ReviewerTeamLeader, &dto.BulkActionRequest{
		FileIDs: []int64{1, 2},
		Action:  "approve",
	})
	require.NoError(t, err)
	assert.Empty(t, results.Success)
	require.Len(t, results.Failed, 2)
	assert.Equal(t, int64(1), results.Failed[0].FileID)
	assert.Equal(t, apperrors.ErrFileNotFound.Error(), results.Failed[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToProjects(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	storageRoot := t.TempDir()
	projectsRoot := t.TempDir()
	storage, err := filestorage.NewLocalStorage(storageRoot)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(storageRoot, "alice"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storageRoot, "alice", "drawing.dwg"), []byte("payload"), 0o644))

	svc := newReviewServiceForTest(t, mock, storage, projectsRoot)
	admin := &models.User{ID: 9, Username: "boss", RoleType: models.RoleAdmin}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusFinalApproved, workflow.StagePublishedToPublic))

	expected := filepath.Join(projectsRoot, "2026", "clientA", "drawing.dwg")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE files").
		WithArgs(expected, pgxmock.AnyArg(), int64(42), workflow.StagePublishedToPublic).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	resp, err := svc.MoveToProjects(context.Background(), 42, admin, &dto.MoveToProjectsRequest{DestinationPath: "2026/clientA"})
	require.NoError(t, err)
	assert.Equal(t, expected, resp.DestinationPath)
	content, err := os.ReadFile(expected)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMoveToProjectsRequiresPublishedStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newReviewServiceForTest(t, mock, nil, t.TempDir())
	admin := &models.User{ID: 9, Username: "boss", RoleType: models.RoleAdmin}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusTeamLeaderApproved, workflow.StagePendingAdmin))

	_, err = svc.MoveToProjects(context.Background(), 42, admin, &dto.MoveToProjectsRequest{DestinationPath: "2026"})
	assert.ErrorIs(t, err, workflow.ErrInvalidStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

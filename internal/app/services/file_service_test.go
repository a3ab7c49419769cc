package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

func newFileServiceForTest(t *testing.T, mock pgxmock.PgxPoolIface, storage filestorage.FileStorage) FileService {
	t.Helper()
	return NewFileService(
		mock,
		repositories.NewFileRepository(mock),
		repositories.NewFileCommentRepository(mock),
		repositories.NewFileHistoryRepository(mock),
		repositories.NewNotificationRepository(mock),
		repositories.NewUserRepository(mock),
		storage,
		nil,
		zerolog.Nop(),
	)
}

// multipartHeader builds a real multipart file header carrying content,
// the shape Upload receives from gin.
func multipartHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestFileGetByIDAccess(t *testing.T) {
	tests := []struct {
		name    string
		actor   *models.User
		wantErr error
	}{
		{
			name:  "owner sees own file",
			actor: &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser, Team: "alpha"},
		},
		{
			name:    "stranger is refused",
			actor:   &models.User{ID: 4, Username: "bob", RoleType: models.RoleUser, Team: "alpha"},
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:  "team leader sees team file",
			actor: &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"},
		},
		{
			name:    "leader of another team is refused",
			actor:   &models.User{ID: 8, Username: "other", RoleType: models.RoleTeamLeader, Team: "beta"},
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:  "admin sees everything",
			actor: &models.User{ID: 9, Username: "boss", RoleType: models.RoleAdmin},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			svc := newFileServiceForTest(t, mock, nil)

			mock.ExpectQuery("FROM files WHERE id").
				WithArgs(int64(42)).
				WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

			file, err := svc.GetByID(context.Background(), 42, tt.actor)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(42), file.ID)
		})
	}
}

func TestFileDeleteRequiresOwnerOrAdmin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newFileServiceForTest(t, mock, nil)

	// Team leaders can see team files but may not delete them
	leader := &models.User{ID: 7, Username: "lead", RoleType: models.RoleTeamLeader, Team: "alpha"}
	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	err = svc.Delete(context.Background(), 42, leader)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileUpdateMetadataDenied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newFileServiceForTest(t, mock, nil)
	stranger := &models.User{ID: 4, Username: "bob", RoleType: models.RoleUser, Team: "beta"}

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	desc := "updated"
	_, err = svc.UpdateMetadata(context.Background(), 42, stranger, &dto.UpdateFileRequest{Description: &desc})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileUploadRejectsNilHeader(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newFileServiceForTest(t, mock, nil)
	uploader := &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser}

	_, err = svc.Upload(context.Background(), nil, &dto.UploadFileRequest{}, uploader)
	require.Error(t, err)

	var custom *apperrors.CustomError
	require.True(t, errors.As(err, &custom))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestFileUploadDuplicateWithoutReplace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	svc := newFileServiceForTest(t, mock, nil)
	uploader := &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser, Team: "alpha"}

	mock.ExpectQuery("FROM files WHERE user_id").
		WithArgs(int64(3), "drawing.dwg").
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	header := multipartHeader(t, "drawing.dwg", "second copy")
	_, err = svc.Upload(context.Background(), header, &dto.UploadFileRequest{}, uploader)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateFile)

	// The refusal carries the existing row so the client can offer replace
	var custom *apperrors.CustomError
	require.True(t, errors.As(err, &custom))
	require.NotNil(t, custom.Details)
	assert.NotNil(t, custom.Details["existingFile"])

	// No insert happened: nothing beyond the lookup was executed
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileUploadReplaceResetsPipeline(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	storageRoot := t.TempDir()
	storage, err := filestorage.NewLocalStorage(storageRoot)
	require.NoError(t, err)

	svc := newFileServiceForTest(t, mock, storage)
	uploader := &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser}

	// The previous version was rejected; replacing it restarts the pipeline
	mock.ExpectQuery("FROM files WHERE user_id").
		WithArgs(int64(3), "drawing.dwg").
		WillReturnRows(fileRows(42, workflow.StatusRejectedByTeamLeader, workflow.StageRejectedByTeamLeader))

	content := "second revision"
	mock.ExpectExec("UPDATE files").
		WithArgs(
			"drawing.dwg", "alice/drawing.dwg", int64(len(content)), pgxmock.AnyArg(), "",
			workflow.StatusUploaded, workflow.StagePendingTeamLeader, int64(42),
		).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectQuery("FROM files WHERE id").
		WithArgs(int64(42)).
		WillReturnRows(fileRows(42, workflow.StatusUploaded, workflow.StagePendingTeamLeader))

	header := multipartHeader(t, "drawing.dwg", content)
	file, err := svc.Upload(context.Background(), header, &dto.UploadFileRequest{Replace: true}, uploader)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusUploaded, file.Status)
	assert.Equal(t, workflow.StagePendingTeamLeader, file.CurrentStage)

	stored, err := os.ReadFile(filepath.Join(storageRoot, "alice", "drawing.dwg"))
	require.NoError(t, err)
	assert.Equal(t, content, string(stored))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileUploadLosesInsertRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	storageRoot := t.TempDir()
	storage, err := filestorage.NewLocalStorage(storageRoot)
	require.NoError(t, err)

	svc := newFileServiceForTest(t, mock, storage)
	uploader := &models.User{ID: 3, Username: "alice", RoleType: models.RoleUser}

	mock.ExpectQuery("FROM files WHERE user_id").
		WithArgs(int64(3), "drawing.dwg").
		WillReturnError(pgx.ErrNoRows)

	// A concurrent upload of the same name got its row in first; the
	// unique constraint turns the losing insert into a duplicate error
	mock.ExpectQuery("INSERT INTO files").
		WithArgs(
			"drawing.dwg", "drawing.dwg", "alice/drawing.dwg", pgxmock.AnyArg(), pgxmock.AnyArg(), "",
			int64(3), "alice", "", workflow.StatusUploaded, workflow.StagePendingTeamLeader,
			models.PriorityNormal, pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "files_owner_name_unique"})

	header := multipartHeader(t, "drawing.dwg", "payload")
	_, err = svc.Upload(context.Background(), header, &dto.UploadFileRequest{}, uploader)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateFile)

	// The stored bytes were cleaned up with the failed insert
	assert.NoFileExists(t, filepath.Join(storageRoot, "alice", "drawing.dwg"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

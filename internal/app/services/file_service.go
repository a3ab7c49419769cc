package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/db"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/filestorage"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/helpers"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/websocket"
)

// FileService defines the interface for file upload and metadata operations
type FileService interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, req *dto.UploadFileRequest, uploader *models.User) (*models.File, error)
	GetByID(ctx context.Context, fileID int64, actor *models.User) (*models.File, error)
	List(ctx context.Context, actor *models.User, filter *dto.FileFilterRequest) (*dto.FileListResponse, error)
	UpdateMetadata(ctx context.Context, fileID int64, actor *models.User, req *dto.UpdateFileRequest) (*models.File, error)
	Delete(ctx context.Context, fileID int64, actor *models.User) error
	GetHistory(ctx context.Context, fileID int64, actor *models.User) ([]models.FileStatusHistory, error)
	GetComments(ctx context.Context, fileID int64, actor *models.User) ([]models.FileComment, error)
	AddComment(ctx context.Context, fileID int64, actor *models.User, req *dto.AddFileCommentRequest) (*models.FileComment, error)
}

// fileServiceImpl implements FileService
type fileServiceImpl struct {
	pool             db.Beginner
	fileRepo         *repositories.FileRepository
	commentRepo      *repositories.FileCommentRepository
	historyRepo      *repositories.FileHistoryRepository
	notificationRepo *repositories.NotificationRepository
	userRepo         *repositories.UserRepository
	fileStorage      filestorage.FileStorage
	wsHub            *websocket.Hub
	logger           zerolog.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	pool db.Beginner,
	fileRepo *repositories.FileRepository,
	commentRepo *repositories.FileCommentRepository,
	historyRepo *repositories.FileHistoryRepository,
	notificationRepo *repositories.NotificationRepository,
	userRepo *repositories.UserRepository,
	fileStorage filestorage.FileStorage,
	wsHub *websocket.Hub,
	logger zerolog.Logger,
) FileService {
	return &fileServiceImpl{
		pool:             pool,
		fileRepo:         fileRepo,
		commentRepo:      commentRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		fileStorage:      fileStorage,
		wsHub:            wsHub,
		logger:           logger,
	}
}

// canAccess reports whether the actor may see the file: owners see their own
// files, team leaders their team's, admins everything.
func canAccess(actor *models.User, file *models.File) bool {
	switch actor.RoleType {
	case models.RoleAdmin:
		return true
	case models.RoleTeamLeader:
		return file.Team == actor.Team || file.UserID == actor.ID
	default:
		return file.UserID == actor.ID
	}
}

// Upload stores the uploaded bytes and creates the file row at the start of
// the review pipeline. A second upload of the same name by the same user is
// rejected with the existing file attached, unless the client asked to
// replace it, in which case the pipeline is reset.
func (s *fileServiceImpl) Upload(ctx context.Context, fileHeader *multipart.FileHeader, req *dto.UploadFileRequest, uploader *models.User) (*models.File, error) {
	if fileHeader == nil {
		return nil, apperrors.NewBadRequestError("No file provided")
	}

	existing, err := s.fileRepo.FindByOwnerAndName(ctx, uploader.ID, fileHeader.Filename)
	if err != nil && !errors.Is(err, apperrors.ErrFileNotFound) {
		return nil, err
	}

	if existing != nil && !req.Replace {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateFile, "A file with this name already exists").
			WithDetails(map[string]interface{}{"existingFile": existing})
	}

	relPath, err := s.fileStorage.SaveUserFile(fileHeader, uploader.Username)
	if err != nil {
		return nil, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var fileID int64
	if existing != nil {
		existing.Filename = filestorage.SanitizeFilename(fileHeader.Filename)
		existing.FilePath = relPath
		existing.FileSize = fileHeader.Size
		existing.FileType = contentType
		existing.Description = req.Description
		if err := s.fileRepo.ReplaceUpload(ctx, existing); err != nil {
			return nil, err
		}
		fileID = existing.ID
		s.logger.Info().
			Int64("fileID", fileID).
			Str("filename", fileHeader.Filename).
			Str("user", uploader.Username).
			Msg("File replaced, review pipeline reset")
	} else {
		file := &models.File{
			Filename:     filestorage.SanitizeFilename(fileHeader.Filename),
			OriginalName: fileHeader.Filename,
			FilePath:     relPath,
			FileSize:     fileHeader.Size,
			FileType:     contentType,
			Description:  req.Description,
			UserID:       uploader.ID,
			Username:     uploader.Username,
			Team:         uploader.Team,
			Status:       workflow.StatusUploaded,
			CurrentStage: workflow.StagePendingTeamLeader,
			Priority:     models.PriorityNormal,
		}
		fileID, err = s.fileRepo.Create(ctx, file)
		if err != nil {
			// Keep storage and DB consistent
			if rmErr := s.fileStorage.DeleteFile(relPath); rmErr != nil {
				s.logger.Error().Err(rmErr).Str("relPath", relPath).Msg("Failed to clean up stored file")
			}
			return nil, err
		}
		s.logger.Info().
			Int64("fileID", fileID).
			Str("filename", fileHeader.Filename).
			Str("user", uploader.Username).
			Msg("File uploaded")
	}

	s.notifyTeamLeaders(ctx, fileID, fileHeader.Filename, uploader)

	return s.fileRepo.GetByID(ctx, fileID)
}

// notifyTeamLeaders tells the uploader's team leaders a file awaits review.
// Best effort: a notification failure never fails the upload.
func (s *fileServiceImpl) notifyTeamLeaders(ctx context.Context, fileID int64, filename string, uploader *models.User) {
	if uploader.Team == "" {
		return
	}

	leaders, err := s.userRepo.GetReviewersForTeam(ctx, uploader.Team)
	if err != nil {
		s.logger.Error().Err(err).Str("team", uploader.Team).Msg("Failed to look up team leaders for upload notification")
		return
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, leader := range leaders {
			n := &models.Notification{
				UserID:  leader.ID,
				Type:    models.NotificationFileComment,
				Title:   "File awaiting review",
				Message: fmt.Sprintf("%q from %s is awaiting your review", filename, uploader.Username),
				FileID:  &fileID,
			}
			id, err := s.notificationRepo.Create(ctx, tx, n)
			if err != nil {
				return err
			}
			if s.wsHub != nil {
				s.wsHub.Push(&websocket.Event{
					Type:           string(n.Type),
					UserID:         n.UserID,
					NotificationID: id,
					Title:          n.Title,
					Message:        n.Message,
					FileID:         fileID,
				})
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("fileID", fileID).Msg("Failed to notify team leaders")
	}
}

// GetByID retrieves a file the actor is allowed to see
func (s *fileServiceImpl) GetByID(ctx context.Context, fileID int64, actor *models.User) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canAccess(actor, file) {
		return nil, apperrors.ErrPermissionDenied
	}

	return file, nil
}

// List retrieves files scoped to the actor's role: users see their own,
// team leaders their team, admins everything.
func (s *fileServiceImpl) List(ctx context.Context, actor *models.User, filter *dto.FileFilterRequest) (*dto.FileListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = helpers.DefaultPage
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > helpers.MaxPageSize {
		pageSize = helpers.DefaultPageSize
	}

	repoFilter := repositories.FileFilter{
		Status:   filter.Status,
		Stage:    filter.Stage,
		Team:     filter.Team,
		UserID:   filter.UserID,
		Search:   filter.Search,
		SortBy:   filter.SortBy,
		SortDir:  filter.SortDir,
		Page:     page,
		PageSize: pageSize,
	}

	switch actor.RoleType {
	case models.RoleAdmin:
		// Unrestricted
	case models.RoleTeamLeader:
		repoFilter.Team = &actor.Team
	default:
		repoFilter.UserID = &actor.ID
	}

	files, total, err := s.fileRepo.GetAll(ctx, repoFilter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list files")
		return nil, err
	}

	return &dto.FileListResponse{
		Files:      files,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// UpdateMetadata patches description, priority and due date outside the
// review pipeline
func (s *fileServiceImpl) UpdateMetadata(ctx context.Context, fileID int64, actor *models.User, req *dto.UpdateFileRequest) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canAccess(actor, file) {
		return nil, apperrors.ErrPermissionDenied
	}

	var priority *models.Priority
	if req.Priority != nil {
		p := models.Priority(*req.Priority)
		priority = &p
	}

	if err := s.fileRepo.UpdateMetadata(ctx, fileID, req.Description, priority, req.DueDate); err != nil {
		return nil, err
	}

	return s.fileRepo.GetByID(ctx, fileID)
}

// Delete removes a file row and its stored bytes. Owners may delete their
// own files; admins may delete any.
func (s *fileServiceImpl) Delete(ctx context.Context, fileID int64, actor *models.User) error {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	if actor.RoleType != models.RoleAdmin && file.UserID != actor.ID {
		return apperrors.ErrPermissionDenied
	}

	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		return err
	}

	if err := s.fileStorage.DeleteFile(file.FilePath); err != nil {
		s.logger.Error().Err(err).Str("relPath", file.FilePath).Msg("Failed to delete stored file")
	}

	s.logger.Info().Int64("fileID", fileID).Str("actor", actor.Username).Msg("File deleted")
	return nil
}

// GetHistory retrieves the audit trail for a file
func (s *fileServiceImpl) GetHistory(ctx context.Context, fileID int64, actor *models.User) ([]models.FileStatusHistory, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canAccess(actor, file) {
		return nil, apperrors.ErrPermissionDenied
	}

	return s.historyRepo.GetByFileID(ctx, fileID)
}

// GetComments retrieves all comments on a file
func (s *fileServiceImpl) GetComments(ctx context.Context, fileID int64, actor *models.User) ([]models.FileComment, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canAccess(actor, file) {
		return nil, apperrors.ErrPermissionDenied
	}

	return s.commentRepo.GetByFileID(ctx, fileID)
}

// AddComment creates an ad hoc comment and tells the file owner about it
func (s *fileServiceImpl) AddComment(ctx context.Context, fileID int64, actor *models.User, req *dto.AddFileCommentRequest) (*models.FileComment, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if !canAccess(actor, file) {
		return nil, apperrors.ErrPermissionDenied
	}

	comment := &models.FileComment{
		FileID:      fileID,
		UserID:      actor.ID,
		Username:    actor.Username,
		Comment:     req.Comment,
		CommentType: models.CommentTypePlain,
	}

	var notification *models.Notification
	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		id, err := s.commentRepo.Create(ctx, tx, comment)
		if err != nil {
			return err
		}
		comment.ID = id

		if file.UserID != actor.ID {
			notification = &models.Notification{
				UserID:  file.UserID,
				Type:    models.NotificationFileComment,
				Title:   "New comment on your file",
				Message: fmt.Sprintf("%s commented on %q: %s", actor.Username, file.OriginalName, req.Comment),
				FileID:  &fileID,
			}
			nid, err := s.notificationRepo.Create(ctx, tx, notification)
			if err != nil {
				return err
			}
			notification.ID = nid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if notification != nil && s.wsHub != nil {
		s.wsHub.Push(&websocket.Event{
			Type:           string(notification.Type),
			UserID:         notification.UserID,
			NotificationID: notification.ID,
			Title:          notification.Title,
			Message:        notification.Message,
			FileID:         fileID,
		})
	}

	return comment, nil
}

package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/workflow"
	"github.com/imrysn/kmtifmsv2-sub000/internal/db"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/filestorage"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/websocket"
)

// ReviewService drives the file review pipeline. Every transition runs as a
// single transaction: the guarded file update, the review comment, the audit
// row and the owner notification all commit or roll back together.
type ReviewService interface {
	Review(ctx context.Context, fileID int64, reviewer *models.User, role workflow.ReviewerRole, req *dto.ReviewRequest) (*models.File, error)
	BulkReview(ctx context.Context, reviewer *models.User, role workflow.ReviewerRole, req *dto.BulkActionRequest) (*dto.BulkActionResults, error)
	MoveToProjects(ctx context.Context, fileID int64, actor *models.User, req *dto.MoveToProjectsRequest) (*dto.MoveToProjectsResponse, error)
}

// reviewServiceImpl implements ReviewService
type reviewServiceImpl struct {
	pool             db.Beginner
	fileRepo         *repositories.FileRepository
	commentRepo      *repositories.FileCommentRepository
	historyRepo      *repositories.FileHistoryRepository
	notificationRepo *repositories.NotificationRepository
	userRepo         *repositories.UserRepository
	fileStorage      filestorage.FileStorage
	projectsRoot     string
	wsHub            *websocket.Hub
	logger           zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	pool db.Beginner,
	fileRepo *repositories.FileRepository,
	commentRepo *repositories.FileCommentRepository,
	historyRepo *repositories.FileHistoryRepository,
	notificationRepo *repositories.NotificationRepository,
	userRepo *repositories.UserRepository,
	fileStorage filestorage.FileStorage,
	projectsRoot string,
	wsHub *websocket.Hub,
	logger zerolog.Logger,
) ReviewService {
	return &reviewServiceImpl{
		pool:             pool,
		fileRepo:         fileRepo,
		commentRepo:      commentRepo,
		historyRepo:      historyRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		fileStorage:      fileStorage,
		projectsRoot:     projectsRoot,
		wsHub:            wsHub,
		logger:           logger,
	}
}

// reviewerLabel is the wording used in notifications and default rejection
// reasons for each reviewing role.
func reviewerLabel(role workflow.ReviewerRole) string {
	if role == workflow.ReviewerAdmin {
		return "Admin"
	}
	return "Team Leader"
}

// Review applies one approve/reject decision to a file.
func (s *reviewServiceImpl) Review(ctx context.Context, fileID int64, reviewer *models.User, role workflow.ReviewerRole, req *dto.ReviewRequest) (*models.File, error) {
	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return nil, err
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	transition, err := workflow.Apply(file.CurrentStage, role, action)
	if err != nil {
		s.logger.Warn().
			Int64("fileID", fileID).
			Str("stage", string(file.CurrentStage)).
			Str("role", string(role)).
			Str("action", string(action)).
			Msg("Review rejected by workflow")
		return nil, err
	}

	comments := req.Comments
	if comments == "" && transition.Status.IsRejection() {
		comments = fmt.Sprintf("Rejected by %s", reviewerLabel(role))
	}
	var commentsPtr *string
	if comments != "" {
		commentsPtr = &comments
	}

	now := time.Now()
	var notifications []*models.Notification

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		update := repositories.ReviewUpdate{
			FileID:           fileID,
			ExpectedStage:    transition.FromStage,
			NewStatus:        transition.Status,
			NewStage:         transition.Stage,
			ReviewerID:       reviewer.ID,
			ReviewerUsername: reviewer.Username,
			ReviewerRole:     role,
			Comments:         commentsPtr,
			ReviewedAt:       now,
		}
		if err := s.fileRepo.ApplyReview(ctx, tx, update); err != nil {
			return err
		}

		if commentsPtr != nil {
			commentType := models.CommentTypeApproval
			if transition.Status.IsRejection() {
				commentType = models.CommentTypeRejection
			}
			comment := &models.FileComment{
				FileID:      fileID,
				UserID:      reviewer.ID,
				Username:    reviewer.Username,
				Comment:     *commentsPtr,
				CommentType: commentType,
			}
			if _, err := s.commentRepo.Create(ctx, tx, comment); err != nil {
				return err
			}
		}

		history := &models.FileStatusHistory{
			FileID:            fileID,
			OldStatus:         file.Status,
			NewStatus:         transition.Status,
			OldStage:          transition.FromStage,
			NewStage:          transition.Stage,
			ChangedByID:       reviewer.ID,
			ChangedByUsername: reviewer.Username,
			ChangedByRole:     reviewer.RoleType,
			Comment:           commentsPtr,
		}
		if _, err := s.historyRepo.Create(ctx, tx, history); err != nil {
			return err
		}

		notifications, err = s.buildNotifications(ctx, file, transition, role, comments)
		if err != nil {
			return err
		}
		for _, n := range notifications {
			id, err := s.notificationRepo.Create(ctx, tx, n)
			if err != nil {
				return err
			}
			n.ID = id
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.pushNotifications(notifications)

	s.logger.Info().
		Int64("fileID", fileID).
		Str("from", string(transition.FromStage)).
		Str("to", string(transition.Stage)).
		Str("reviewer", reviewer.Username).
		Msg("File review applied")

	return s.fileRepo.GetByID(ctx, fileID)
}

// buildNotifications composes the notification rows a transition produces:
// one to the file owner, and on a team leader approval one to each admin who
// now has the file in their queue.
func (s *reviewServiceImpl) buildNotifications(ctx context.Context, file *models.File, transition workflow.Transition, role workflow.ReviewerRole, comments string) ([]*models.Notification, error) {
	fileID := file.ID
	label := reviewerLabel(role)

	var ownerType models.NotificationType
	var title, message string
	if transition.Status.IsRejection() {
		ownerType = models.NotificationFileRejected
		title = fmt.Sprintf("File rejected by %s", label)
		message = fmt.Sprintf("%q was rejected by %s: %s", file.OriginalName, label, comments)
	} else {
		ownerType = models.NotificationFileApproved
		if transition.Status == workflow.StatusFinalApproved {
			title = "File approved"
			message = fmt.Sprintf("%q received final approval from %s", file.OriginalName, label)
		} else {
			title = fmt.Sprintf("File approved by %s", label)
			message = fmt.Sprintf("%q was approved by %s and is awaiting final approval", file.OriginalName, label)
		}
	}

	notifications := []*models.Notification{{
		UserID:  file.UserID,
		Type:    ownerType,
		Title:   title,
		Message: message,
		FileID:  &fileID,
	}}

	if transition.Status == workflow.StatusTeamLeaderApproved {
		admins, err := s.userRepo.GetAdmins(ctx)
		if err != nil {
			return nil, err
		}
		for _, admin := range admins {
			notifications = append(notifications, &models.Notification{
				UserID:  admin.ID,
				Type:    models.NotificationFileApproved,
				Title:   "File awaiting final approval",
				Message: fmt.Sprintf("%q from %s is awaiting your review", file.OriginalName, file.Username),
				FileID:  &fileID,
			})
		}
	}

	return notifications, nil
}

// pushNotifications delivers committed notifications over WebSocket.
// Best effort; the rows are already durable.
func (s *reviewServiceImpl) pushNotifications(notifications []*models.Notification) {
	if s.wsHub == nil {
		return
	}
	for _, n := range notifications {
		event := &websocket.Event{
			Type:           string(n.Type),
			UserID:         n.UserID,
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
			Timestamp:      n.CreatedAt,
		}
		if n.FileID != nil {
			event.FileID = *n.FileID
		}
		s.wsHub.Push(event)
	}
}

// BulkReview applies one decision to many files. Each file is validated and
// transitioned independently; one bad file never blocks the rest.
func (s *reviewServiceImpl) BulkReview(ctx context.Context, reviewer *models.User, role workflow.ReviewerRole, req *dto.BulkActionRequest) (*dto.BulkActionResults, error) {
	if _, err := workflow.ParseAction(req.Action); err != nil {
		return nil, err
	}

	results := &dto.BulkActionResults{
		Success: []int64{},
		Failed:  []dto.BulkFileError{},
	}

	single := &dto.ReviewRequest{Action: req.Action, Comments: req.Comments}
	for _, fileID := range req.FileIDs {
		if _, err := s.Review(ctx, fileID, reviewer, role, single); err != nil {
			results.Failed = append(results.Failed, dto.BulkFileError{
				FileID: fileID,
				Reason: err.Error(),
			})
			continue
		}
		results.Success = append(results.Success, fileID)
	}

	s.logger.Info().
		Str("action", req.Action).
		Int("requested", len(req.FileIDs)).
		Int("succeeded", len(results.Success)).
		Int("failed", len(results.Failed)).
		Msg("Bulk review finished")

	return results, nil
}

// MoveToProjects copies a final approved file into the projects share and
// records the destination. The copy refuses to overwrite, and the stage
// guard makes the move single-shot even under concurrent admins.
func (s *reviewServiceImpl) MoveToProjects(ctx context.Context, fileID int64, actor *models.User, req *dto.MoveToProjectsRequest) (*dto.MoveToProjectsResponse, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if file.CurrentStage != workflow.StagePublishedToPublic {
		return nil, workflow.ErrInvalidStage
	}

	// Requested destinations are always resolved under the projects root
	cleaned := filepath.Clean("/" + req.DestinationPath)
	destinationDir := filepath.Join(s.projectsRoot, cleaned)

	destination, err := s.fileStorage.CopyToProjects(file.FilePath, destinationDir, file.OriginalName)
	if err != nil {
		return nil, err
	}

	err = db.WithTransaction(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return s.fileRepo.SetProjectsLocation(ctx, tx, fileID, destination, destination)
	})
	if err != nil {
		// The DB row no longer matches, leave no stray copy behind
		if rmErr := os.Remove(destination); rmErr != nil {
			s.logger.Error().Err(rmErr).Str("destination", destination).Msg("Failed to clean up projects copy")
		}
		return nil, err
	}

	s.logger.Info().
		Int64("fileID", fileID).
		Str("destination", destination).
		Str("actor", actor.Username).
		Msg("File moved to projects")

	return &dto.MoveToProjectsResponse{DestinationPath: destination}, nil
}

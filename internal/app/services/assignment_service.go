package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/helpers"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/websocket"
)

// AssignmentService defines the interface for assignment operations
type AssignmentService interface {
	Create(ctx context.Context, creator *models.User, req *dto.CreateAssignmentRequest) (*models.Assignment, error)
	GetByID(ctx context.Context, id int64, actor *models.User) (*models.Assignment, error)
	List(ctx context.Context, actor *models.User, status *string, page, pageSize int) (*dto.AssignmentListResponse, error)
	UpdateStatus(ctx context.Context, id int64, actor *models.User, req *dto.UpdateAssignmentStatusRequest) (*models.Assignment, error)
	Delete(ctx context.Context, id int64, actor *models.User) error
	AddComment(ctx context.Context, id int64, actor *models.User, req *dto.AddAssignmentCommentRequest) (*models.AssignmentComment, error)
	GetComments(ctx context.Context, id int64, actor *models.User) ([]models.AssignmentComment, error)
}

// assignmentServiceImpl implements AssignmentService
type assignmentServiceImpl struct {
	assignmentRepo   *repositories.AssignmentRepository
	userRepo         *repositories.UserRepository
	notificationRepo *repositories.NotificationRepository
	db               repositories.DB
	wsHub            *websocket.Hub
	logger           zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	db repositories.DB,
	assignmentRepo *repositories.AssignmentRepository,
	userRepo *repositories.UserRepository,
	notificationRepo *repositories.NotificationRepository,
	wsHub *websocket.Hub,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentServiceImpl{
		db:               db,
		assignmentRepo:   assignmentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		wsHub:            wsHub,
		logger:           logger,
	}
}

// Create hands a task to a user and notifies them
func (s *assignmentServiceImpl) Create(ctx context.Context, creator *models.User, req *dto.CreateAssignmentRequest) (*models.Assignment, error) {
	assignee, err := s.userRepo.GetByID(ctx, req.AssignedTo)
	if err != nil {
		return nil, err
	}

	priority := models.PriorityNormal
	if req.Priority != "" {
		priority = models.Priority(req.Priority)
	}

	assignment := &models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  assignee.ID,
		AssignedBy:  creator.ID,
		Team:        assignee.Team,
		Status:      models.AssignmentTodo,
		Priority:    priority,
		DueDate:     req.DueDate,
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.notifyAssignee(ctx, assignment, assignee.ID,
		"New assignment",
		fmt.Sprintf("%s assigned %q to you", creator.Username, assignment.Title),
		models.NotificationAssignment,
	)

	s.logger.Info().
		Int64("assignmentID", assignment.ID).
		Str("assignee", assignee.Username).
		Msg("Assignment created")

	return assignment, nil
}

func (s *assignmentServiceImpl) notifyAssignee(ctx context.Context, assignment *models.Assignment, userID int64, title, message string, t models.NotificationType) {
	assignmentID := assignment.ID
	n := &models.Notification{
		UserID:       userID,
		Type:         t,
		Title:        title,
		Message:      message,
		AssignmentID: &assignmentID,
	}

	id, err := s.notificationRepo.Create(ctx, s.db, n)
	if err != nil {
		s.logger.Error().Err(err).Int64("assignmentID", assignmentID).Msg("Failed to create assignment notification")
		return
	}

	if s.wsHub != nil {
		s.wsHub.Push(&websocket.Event{
			Type:           string(t),
			UserID:         userID,
			NotificationID: id,
			Title:          title,
			Message:        message,
			AssignmentID:   assignmentID,
		})
	}
}

// GetByID retrieves an assignment the actor is involved in. Reads are
// scoped the same way as mutations: assignee, team leader or admin.
func (s *assignmentServiceImpl) GetByID(ctx context.Context, id int64, actor *models.User) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTouchAssignment(actor, assignment) {
		return nil, apperrors.ErrPermissionDenied
	}

	return assignment, nil
}

// List retrieves assignments scoped to the actor's role
func (s *assignmentServiceImpl) List(ctx context.Context, actor *models.User, status *string, page, pageSize int) (*dto.AssignmentListResponse, error) {
	if page < 1 {
		page = helpers.DefaultPage
	}
	if pageSize <= 0 || pageSize > helpers.MaxPageSize {
		pageSize = helpers.DefaultPageSize
	}

	var assignedTo *int64
	var team *string
	switch actor.RoleType {
	case models.RoleAdmin:
		// Unrestricted
	case models.RoleTeamLeader:
		team = &actor.Team
	default:
		assignedTo = &actor.ID
	}

	assignments, total, err := s.assignmentRepo.GetAll(ctx, assignedTo, team, status, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &dto.AssignmentListResponse{
		Assignments: assignments,
		Pagination:  helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// UpdateStatus moves an assignment between todo, in_progress and done.
// Only the assignee, a team leader of the assignee's team or an admin may
// move it.
func (s *assignmentServiceImpl) UpdateStatus(ctx context.Context, id int64, actor *models.User, req *dto.UpdateAssignmentStatusRequest) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTouchAssignment(actor, assignment) {
		return nil, apperrors.ErrPermissionDenied
	}

	status := models.AssignmentStatus(req.Status)
	if err := s.assignmentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	assignment.Status = status

	// Tell the creator when work is done
	if status == models.AssignmentDone && assignment.AssignedBy != actor.ID {
		s.notifyAssignee(ctx, assignment, assignment.AssignedBy,
			"Assignment completed",
			fmt.Sprintf("%s marked %q as done", actor.Username, assignment.Title),
			models.NotificationAssignment,
		)
	}

	return assignment, nil
}

func canTouchAssignment(actor *models.User, assignment *models.Assignment) bool {
	switch actor.RoleType {
	case models.RoleAdmin:
		return true
	case models.RoleTeamLeader:
		return assignment.Team == actor.Team || assignment.AssignedBy == actor.ID
	default:
		return assignment.AssignedTo == actor.ID
	}
}

// Delete removes an assignment. Creator, team leader or admin only.
func (s *assignmentServiceImpl) Delete(ctx context.Context, id int64, actor *models.User) error {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.RoleType != models.RoleAdmin && assignment.AssignedBy != actor.ID {
		return apperrors.ErrPermissionDenied
	}

	return s.assignmentRepo.Delete(ctx, id)
}

// AddComment comments on an assignment and notifies the other party
func (s *assignmentServiceImpl) AddComment(ctx context.Context, id int64, actor *models.User, req *dto.AddAssignmentCommentRequest) (*models.AssignmentComment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTouchAssignment(actor, assignment) {
		return nil, apperrors.ErrPermissionDenied
	}

	comment := &models.AssignmentComment{
		AssignmentID: id,
		UserID:       actor.ID,
		Username:     actor.Username,
		Comment:      req.Comment,
	}

	if err := s.assignmentRepo.AddComment(ctx, comment); err != nil {
		return nil, err
	}

	// Notify whichever side of the assignment didn't write the comment
	target := assignment.AssignedTo
	if actor.ID == assignment.AssignedTo {
		target = assignment.AssignedBy
	}
	if target != actor.ID {
		s.notifyAssignee(ctx, assignment, target,
			"New comment on assignment",
			fmt.Sprintf("%s commented on %q: %s", actor.Username, assignment.Title, req.Comment),
			models.NotificationAssignmentNote,
		)
	}

	return comment, nil
}

// GetComments retrieves all comments on an assignment the actor may see
func (s *assignmentServiceImpl) GetComments(ctx context.Context, id int64, actor *models.User) ([]models.AssignmentComment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canTouchAssignment(actor, assignment) {
		return nil, apperrors.ErrPermissionDenied
	}

	return s.assignmentRepo.GetComments(ctx, assignment.ID)
}

package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/imrysn/kmtifmsv2-sub000/internal/app/models/dto"
	"github.com/imrysn/kmtifmsv2-sub000/internal/app/repositories"
	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/helpers"
)

// NotificationService defines the interface for notification operations
type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userID, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, notificationID int64) error
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

// notificationServiceImpl implements NotificationService
type notificationServiceImpl struct {
	notificationRepo *repositories.NotificationRepository
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo *repositories.NotificationRepository, logger zerolog.Logger) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// List retrieves a page of the user's notifications with the unread count
func (s *notificationServiceImpl) List(ctx context.Context, userID int64, unreadOnly bool, page, pageSize int) (*dto.NotificationListResponse, error) {
	if page < 1 {
		page = helpers.DefaultPage
	}
	if pageSize <= 0 || pageSize > helpers.MaxPageSize {
		pageSize = helpers.DefaultPageSize
	}

	notifications, total, err := s.notificationRepo.GetByUserID(ctx, userID, unreadOnly, page, pageSize)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to list notifications")
		return nil, err
	}

	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to count unread notifications")
		return nil, err
	}

	return &dto.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		Pagination:    helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// MarkRead flips a single notification to read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID int64) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}

// MarkAllRead flips all of the user's notifications to read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

// Delete removes a notification owned by the user
func (s *notificationServiceImpl) Delete(ctx context.Context, userID, notificationID int64) error {
	return s.notificationRepo.Delete(ctx, userID, notificationID)
}

// DeleteAll clears every notification belonging to the user
func (s *notificationServiceImpl) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.DeleteAllForUser(ctx, userID)
}

package dto

import "github.com/imrysn/kmtifmsv2-sub000/internal/app/models"

// NotificationListResponse represents a page of notifications
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unreadCount"`
	Pagination    PaginationInfo        `json:"pagination"`
}

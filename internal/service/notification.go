package service

import (
	"context"
	"strings"

	"yochat/internal/model"
	"yochat/internal/repository"
)

// NotificationService serves the in-app notification list and device registration.
// Notifications are created by FriendService and FeedService inside their own transactions.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	tokenRepo repository.DeviceTokenRepository
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	tokenRepo repository.DeviceTokenRepository,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		tokenRepo: tokenRepo,
	}
}

// GetNotifications returns the newest notifications and the unread badge count.
func (s *NotificationService) GetNotifications(ctx context.Context, userID int64, limit int) (*model.NotificationListResponse, error) {
	if limit <= 0 || limit > model.DefaultNotificationLimit {
		limit = model.DefaultNotificationLimit
	}

	notifications, err := s.notifRepo.List(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	unread, err := s.notifRepo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID int64, notificationIDs []int64) error {
	return s.notifRepo.MarkAsRead(ctx, userID, notificationIDs)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.notifRepo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifRepo.GetUnreadCount(ctx, userID)
}

// RegisterDeviceToken stores the device's Expo push token for userID.
func (s *NotificationService) RegisterDeviceToken(ctx context.Context, userID int64, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.ErrInvalidPushToken
	}
	if !model.IsValidPlatform(platform) {
		return model.ErrInvalidPlatform
	}
	return s.tokenRepo.Upsert(ctx, userID, token, platform)
}

// RemoveDeviceToken unregisters a device, typically on logout.
func (s *NotificationService) RemoveDeviceToken(ctx context.Context, userID int64, token string) error {
	return s.tokenRepo.Delete(ctx, userID, token)
}

// BuildPushMessage renders the title and body shown on the device for n.
func BuildPushMessage(n *model.Notification) (title, body string) {
	switch n.Type {
	case model.NotificationTypeFriendRequest:
		title = "New friend request"
		body = n.SenderUsername + " sent you a friend request"
	case model.NotificationTypeFriendAccept:
		title = "Friend request accepted"
		body = n.SenderUsername + " accepted your friend request"
	case model.NotificationTypeFriendDecline:
		title = "Friend request declined"
		body = n.SenderUsername + " declined your friend request"
	case model.NotificationTypeLike:
		title = "New like"
		body = n.SenderUsername + " liked your post"
	default:
		title = "YoChat"
		body = "You have a new notification"
	}
	return
}

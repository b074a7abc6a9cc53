package worker

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"yochat/internal/model"
	"yochat/internal/queue"
	"yochat/internal/realtime"
)

// NotificationReader loads a committed notification with its display fields joined.
type NotificationReader interface {
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
}

// DeviceTokenProvider lists the push tokens registered to a user and prunes dead ones.
type DeviceTokenProvider interface {
	GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error)
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
}

// LiveNotifier pushes a message to a user's open websocket connections
// and reports how many connections received it.
type LiveNotifier interface {
	SendToUser(userID int64, msg realtime.Message) int
}

// PushSender delivers a device push notification and returns the tokens
// the provider reported as no longer registered.
type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error)
}

// PushFormatter renders the title and body of a device push.
type PushFormatter func(n *model.Notification) (title, body string)

// Handler delivers committed notification events to connected clients and devices.
// Delivery is best-effort: the notification row is already the source of truth.
type Handler struct {
	notifications NotificationReader
	live          LiveNotifier
	tokens        DeviceTokenProvider // nil disables push
	push          PushSender          // nil disables push
	format        PushFormatter
}

// NewHandler creates a new event handler.
func NewHandler(notifications NotificationReader, live LiveNotifier) *Handler {
	return &Handler{
		notifications: notifications,
		live:          live,
	}
}

// SetPush enables device push delivery.
func (h *Handler) SetPush(tokens DeviceTokenProvider, push PushSender, format PushFormatter) {
	h.tokens = tokens
	h.push = push
	h.format = format
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.Event) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventNotificationCreated:
		err = h.handleNotificationCreated(ctx, event)
	case queue.EventFriendshipRemoved:
		err = h.handleFriendshipRemoved(ctx, event)
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s duration=%v err=%v",
			event.Type, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s duration=%v", event.Type, time.Since(startTime))
	return nil
}

func (h *Handler) handleNotificationCreated(ctx context.Context, event queue.Event) error {
	n, err := h.notifications.GetByID(ctx, event.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification %d: %w", event.NotificationID, err)
	}

	delivered := h.live.SendToUser(n.RecipientID, realtime.Message{
		Event: realtime.EventNotification,
		Data:  n,
	})
	log.Printf("[Worker] NotificationCreated: notification=%d recipient=%d type=%s live=%d",
		n.ID, n.RecipientID, n.Type, delivered)

	if h.push == nil || h.tokens == nil {
		return nil
	}

	devices, err := h.tokens.GetByUserID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("get device tokens: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.Token
	}

	title, body := h.format(n)
	data := map[string]interface{}{
		"type":            n.Type,
		"notification_id": strconv.FormatInt(n.ID, 10),
		"sender_id":       strconv.FormatInt(n.SenderID, 10),
	}
	if n.PostID != nil {
		data["post_id"] = strconv.FormatInt(*n.PostID, 10)
	}

	unregistered, err := h.push.SendToTokens(ctx, tokens, title, body, data)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	if len(unregistered) > 0 {
		pruned, err := h.tokens.DeleteTokens(ctx, unregistered)
		if err != nil {
			log.Printf("[Worker] Failed to prune device tokens: user=%d err=%v", n.RecipientID, err)
			return nil
		}
		log.Printf("[Worker] Pruned %d unregistered device tokens: user=%d", pruned, n.RecipientID)
	}
	return nil
}

// handleFriendshipRemoved tells both former friends' clients to drop each other's posts.
func (h *Handler) handleFriendshipRemoved(ctx context.Context, event queue.Event) error {
	payload := map[string]int64{"user_id": event.UserID, "other_id": event.OtherID}
	a := h.live.SendToUser(event.UserID, realtime.Message{Event: realtime.EventFriendshipRemoved, Data: payload})
	b := h.live.SendToUser(event.OtherID, realtime.Message{Event: realtime.EventFriendshipRemoved, Data: payload})
	log.Printf("[Worker] FriendshipRemoved: users=%d,%d live=%d", event.UserID, event.OtherID, a+b)
	return nil
}

package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the notification stream
const (
	// EventNotificationCreated is published after a notification row commits.
	EventNotificationCreated = "notification_created"
	// EventFriendshipRemoved tells both users' clients to drop cached friend posts.
	EventFriendshipRemoved = "friendship_removed"
)

const (
	StreamNotifications = "stream:notifications"

	ConsumerGroupDelivery = "notification_dispatchers"
)

// Event is the payload of every message on the notification stream.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`

	// NotificationCreated
	NotificationID int64 `json:"notification_id,omitempty"`
	RecipientID    int64 `json:"recipient_id,omitempty"`

	// FriendshipRemoved
	UserID  int64 `json:"user_id,omitempty"`
	OtherID int64 `json:"other_id,omitempty"`
}

func NewNotificationCreatedEvent(notificationID, recipientID int64) Event {
	return Event{
		Type:           EventNotificationCreated,
		Timestamp:      time.Now().Unix(),
		NotificationID: notificationID,
		RecipientID:    recipientID,
	}
}

func NewFriendshipRemovedEvent(userID, otherID int64) Event {
	return Event{
		Type:      EventFriendshipRemoved,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		OtherID:   otherID,
	}
}

// ToMap converts the event to XADD field-value pairs. The full event is JSON in "data".
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from Redis stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("event has no type")
	}
	return event, nil
}

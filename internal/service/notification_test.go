package service

import (
	"context"
	"errors"
	"testing"

	"yochat/internal/model"
)

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")

	if _, err := f.friends.SendRequest(ctx, bob, alice); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.friends.SendRequest(ctx, carol, alice); err != nil {
		t.Fatalf("send: %v", err)
	}

	resp, err := f.notifs.GetNotifications(ctx, alice, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Notifications) != 2 || resp.UnreadCount != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Notifications[0].SenderUsername != "carol" {
		t.Errorf("newest sender = %q, want carol", resp.Notifications[0].SenderUsername)
	}

	if err := f.notifs.MarkAsRead(ctx, alice, []int64{resp.Notifications[0].ID}); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := f.notifs.GetUnreadCount(ctx, alice); n != 1 {
		t.Errorf("unread = %d, want 1", n)
	}

	// Marking someone else's notification does nothing.
	if err := f.notifs.MarkAsRead(ctx, bob, []int64{resp.Notifications[1].ID}); err != nil {
		t.Fatalf("mark read as bob: %v", err)
	}
	if n, _ := f.notifs.GetUnreadCount(ctx, alice); n != 1 {
		t.Errorf("unread = %d after foreign mark, want 1", n)
	}

	if err := f.notifs.MarkAllAsRead(ctx, alice); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n, _ := f.notifs.GetUnreadCount(ctx, alice); n != 0 {
		t.Errorf("unread = %d, want 0", n)
	}
}

func TestNotificationService_GetNotifications_ClampsLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")

	for i := 0; i < model.DefaultNotificationLimit+5; i++ {
		if err := (memNotifications{f.store}).Create(ctx, nil, &model.Notification{
			RecipientID: alice,
			SenderID:    alice,
			Type:        model.NotificationTypeLike,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	for _, limit := range []int{-1, 0, 1000} {
		resp, err := f.notifs.GetNotifications(ctx, alice, limit)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(resp.Notifications) != model.DefaultNotificationLimit {
			t.Errorf("limit %d: got %d notifications", limit, len(resp.Notifications))
		}
	}

	resp, _ := f.notifs.GetNotifications(ctx, alice, 3)
	if len(resp.Notifications) != 3 {
		t.Errorf("limit 3: got %d", len(resp.Notifications))
	}
}

func TestNotificationService_RegisterDeviceToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		platform string
		wantErr  error
	}{
		{"ios", "ExponentPushToken[a]", model.PlatformIOS, nil},
		{"android", "ExponentPushToken[b]", model.PlatformAndroid, nil},
		{"blank token", "  ", model.PlatformIOS, model.ErrInvalidPushToken},
		{"bad platform", "ExponentPushToken[c]", "web", model.ErrInvalidPlatform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			alice := f.store.addUser("alice")
			err := f.notifs.RegisterDeviceToken(context.Background(), alice, tt.token, tt.platform)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotificationService_DeviceTokenMovesBetweenUsers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	tokens := memTokens{f.store}
	const token = "ExponentPushToken[shared]"

	if err := f.notifs.RegisterDeviceToken(ctx, alice, token, model.PlatformIOS); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := f.notifs.RegisterDeviceToken(ctx, bob, token, model.PlatformIOS); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	if got, _ := tokens.GetByUserID(ctx, alice); len(got) != 0 {
		t.Errorf("alice still holds %d tokens", len(got))
	}
	if got, _ := tokens.GetByUserID(ctx, bob); len(got) != 1 {
		t.Errorf("bob holds %d tokens, want 1", len(got))
	}

	if err := f.notifs.RemoveDeviceToken(ctx, bob, token); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, _ := tokens.GetByUserID(ctx, bob); len(got) != 0 {
		t.Errorf("bob still holds %d tokens", len(got))
	}
}

func TestBuildPushMessage(t *testing.T) {
	tests := []struct {
		notifType string
		wantTitle string
		wantBody  string
	}{
		{model.NotificationTypeFriendRequest, "New friend request", "bob sent you a friend request"},
		{model.NotificationTypeFriendAccept, "Friend request accepted", "bob accepted your friend request"},
		{model.NotificationTypeFriendDecline, "Friend request declined", "bob declined your friend request"},
		{model.NotificationTypeLike, "New like", "bob liked your post"},
	}
	for _, tt := range tests {
		title, body := BuildPushMessage(&model.Notification{Type: tt.notifType, SenderUsername: "bob"})
		if title != tt.wantTitle || body != tt.wantBody {
			t.Errorf("%s: got (%q, %q)", tt.notifType, title, body)
		}
	}
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
	"yochat/internal/queue"
	"yochat/internal/repository"
)

func feedIDs(resp *model.FeedResponse) []int64 {
	ids := make([]int64, len(resp.Posts))
	for i, p := range resp.Posts {
		ids[i] = p.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFeedService_GetVisiblePosts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	carol := f.store.addUser("carol")
	f.befriend(t, alice, bob)

	a1 := f.store.addPost(alice, "a1")
	b1 := f.store.addPost(bob, "b1")
	f.store.addPost(carol, "c1")
	a2 := f.store.addPost(alice, "a2")

	resp, err := f.feed.GetVisiblePosts(ctx, alice)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if got, want := feedIDs(resp), []int64{a2, b1, a1}; !equalIDs(got, want) {
		t.Errorf("alice feed = %v, want %v", got, want)
	}

	resp, _ = f.feed.GetVisiblePosts(ctx, bob)
	if got, want := feedIDs(resp), []int64{a2, b1, a1}; !equalIDs(got, want) {
		t.Errorf("bob feed = %v, want %v", got, want)
	}

	// Unfriending takes effect on the next read.
	if err := f.friends.Unfriend(ctx, alice, bob); err != nil {
		t.Fatalf("unfriend: %v", err)
	}
	resp, _ = f.feed.GetVisiblePosts(ctx, alice)
	if got, want := feedIDs(resp), []int64{a2, a1}; !equalIDs(got, want) {
		t.Errorf("alice feed after unfriend = %v, want %v", got, want)
	}
}

func TestFeedService_GetVisiblePosts_PendingRequestGrantsNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	f.store.addPost(bob, "b1")

	if _, err := f.friends.SendRequest(ctx, alice, bob); err != nil {
		t.Fatalf("send: %v", err)
	}
	resp, _ := f.feed.GetVisiblePosts(ctx, alice)
	if len(resp.Posts) != 0 {
		t.Errorf("pending request exposed %d posts", len(resp.Posts))
	}
}

func TestFeedService_ToggleReaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	f.befriend(t, alice, bob)
	post := f.store.addPost(bob, "b1")
	before := len(f.store.notificationsFor(bob))

	res, err := f.feed.ToggleReaction(ctx, alice, post)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !res.Liked || res.TotalLikes != 1 {
		t.Errorf("after like = %+v, want liked with 1", res)
	}
	notifs := f.store.notificationsFor(bob)
	if len(notifs) != before+1 {
		t.Fatalf("bob notifications = %d, want %d", len(notifs), before+1)
	}
	last := notifs[len(notifs)-1]
	if last.Type != model.NotificationTypeLike || last.PostID == nil || *last.PostID != post {
		t.Errorf("like notification = %+v", last)
	}

	res, err = f.feed.ToggleReaction(ctx, alice, post)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.Liked || res.TotalLikes != 0 {
		t.Errorf("after unlike = %+v, want not liked with 0", res)
	}
	if got := f.store.reactionCount(post); got != 0 {
		t.Errorf("stored count = %d, want 0", got)
	}
	if n := len(f.store.notificationsFor(bob)); n != before+1 {
		t.Errorf("unlike created a notification: %d", n)
	}
}

func TestFeedService_ToggleReaction_CountTracksReactors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.store.addUser("author")
	post := f.store.addPost(author, "p")

	var reactors []int64
	for _, name := range []string{"u1", "u2", "u3"} {
		id := f.store.addUser(name)
		f.befriend(t, author, id)
		reactors = append(reactors, id)
	}

	for i, id := range reactors {
		res, err := f.feed.ToggleReaction(ctx, id, post)
		if err != nil {
			t.Fatalf("like by %d: %v", id, err)
		}
		if res.TotalLikes != i+1 {
			t.Errorf("count after %d likes = %d", i+1, res.TotalLikes)
		}
	}

	res, err := f.feed.ToggleReaction(ctx, reactors[1], post)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.TotalLikes != 2 {
		t.Errorf("count after unlike = %d, want 2", res.TotalLikes)
	}
}

func TestFeedService_ToggleReaction_OwnPostDoesNotNotify(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	post := f.store.addPost(alice, "a1")

	res, err := f.feed.ToggleReaction(ctx, alice, post)
	if err != nil {
		t.Fatalf("like own post: %v", err)
	}
	if !res.Liked || res.TotalLikes != 1 {
		t.Errorf("result = %+v", res)
	}
	if n := f.store.notificationCount(); n != 0 {
		t.Errorf("self-like created %d notifications", n)
	}
	if n := len(f.publisher.types()); n != 0 {
		t.Errorf("self-like published %d events", n)
	}
}

func TestFeedService_NotVisibleIsForbidden(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	carol := f.store.addUser("carol")
	dave := f.store.addUser("dave")
	post := f.store.addPost(dave, "d1")

	if _, err := f.feed.ToggleReaction(ctx, carol, post); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("react error = %v, want %v", err, model.ErrForbidden)
	}
	if _, err := f.feed.SavePost(ctx, carol, post); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("save error = %v, want %v", err, model.ErrForbidden)
	}

	if got := f.store.reactionCount(post); got != 0 {
		t.Errorf("reaction count = %d, want 0", got)
	}
	if n := f.store.notificationCount(); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
	saved, _ := f.feed.ListSavedPosts(ctx, carol)
	if len(saved) != 0 {
		t.Errorf("saved = %d, want 0", len(saved))
	}
}

// interleavedTx runs before once, ahead of the next transaction, standing in for
// a concurrent request that commits between a caller's earlier reads and its write.
type interleavedTx struct {
	repository.Transactor
	before func()
}

func (t *interleavedTx) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if t.before != nil {
		before := t.before
		t.before = nil
		before()
	}
	return t.Transactor.WithinTx(ctx, fn)
}

func countEvents(p *recordingPublisher, eventType string) int {
	n := 0
	for _, typ := range p.types() {
		if typ == eventType {
			n++
		}
	}
	return n
}

func TestFeedService_UnfriendRacingWrites(t *testing.T) {
	tests := []struct {
		name string
		act  func(feed *FeedService, viewerID, postID int64) error
	}{
		{
			name: "toggle reaction",
			act: func(feed *FeedService, viewerID, postID int64) error {
				_, err := feed.ToggleReaction(context.Background(), viewerID, postID)
				return err
			},
		},
		{
			name: "save post",
			act: func(feed *FeedService, viewerID, postID int64) error {
				_, err := feed.SavePost(context.Background(), viewerID, postID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			carol := f.store.addUser("carol")
			dave := f.store.addUser("dave")
			f.befriend(t, carol, dave)
			post := f.store.addPost(dave, "d1")
			notifsBefore := f.store.notificationCount()
			createdBefore := countEvents(f.publisher, queue.EventNotificationCreated)

			tx := &interleavedTx{
				Transactor: f.store,
				before: func() {
					if err := f.friends.Unfriend(ctx, dave, carol); err != nil {
						t.Errorf("unfriend: %v", err)
					}
				},
			}
			feed := NewFeedService(memPosts{f.store}, memSaved{f.store}, memFriends{f.store},
				memNotifications{f.store}, tx, f.publisher)

			if err := tt.act(feed, carol, post); !errors.Is(err, model.ErrForbidden) {
				t.Fatalf("error = %v, want %v", err, model.ErrForbidden)
			}
			if got := f.store.reactionCount(post); got != 0 {
				t.Errorf("reaction count = %d, want 0", got)
			}
			if n := f.store.notificationCount(); n != notifsBefore {
				t.Errorf("notifications = %d, want %d", n, notifsBefore)
			}
			if got := countEvents(f.publisher, queue.EventNotificationCreated); got != createdBefore {
				t.Errorf("notification_created events = %d, want %d", got, createdBefore)
			}
			saved, _ := feed.ListSavedPosts(ctx, carol)
			if len(saved) != 0 {
				t.Errorf("saved = %d, want 0", len(saved))
			}
		})
	}
}

func TestFeedService_UnknownPost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")

	if _, err := f.feed.ToggleReaction(ctx, alice, 404); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("react error = %v, want %v", err, model.ErrPostNotFound)
	}
	if _, err := f.feed.SavePost(ctx, alice, 404); !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("save error = %v, want %v", err, model.ErrPostNotFound)
	}
}

func TestFeedService_SavePost(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	f.befriend(t, alice, bob)
	post := f.store.addPost(bob, "b1")

	res, err := f.feed.SavePost(ctx, alice, post)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !res.Saved || res.AlreadySaved {
		t.Errorf("first save = %+v", res)
	}

	res, err = f.feed.SavePost(ctx, alice, post)
	if err != nil {
		t.Fatalf("duplicate save should succeed, got %v", err)
	}
	if !res.Saved || !res.AlreadySaved {
		t.Errorf("second save = %+v", res)
	}

	saved, _ := f.feed.ListSavedPosts(ctx, alice)
	if len(saved) != 1 || saved[0].OriginalPostID != post || saved[0].PostOwnerUsername != "bob" {
		t.Errorf("saved = %+v", saved)
	}

	feed, _ := f.feed.GetVisiblePosts(ctx, alice)
	if len(feed.Posts) != 1 || !feed.Posts[0].ViewerHasSaved {
		t.Errorf("feed does not reflect saved state: %+v", feed.Posts)
	}
}

func TestFeedService_SavedPostsSurviveUnfriend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	bob := f.store.addUser("bob")
	f.befriend(t, alice, bob)
	post := f.store.addPost(bob, "b1")

	if _, err := f.feed.SavePost(ctx, alice, post); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := f.friends.Unfriend(ctx, alice, bob); err != nil {
		t.Fatalf("unfriend: %v", err)
	}

	saved, err := f.feed.ListSavedPosts(ctx, alice)
	if err != nil {
		t.Fatalf("list saved: %v", err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved = %d, want 1 after unfriend", len(saved))
	}

	// Unsave only requires the bookmark to exist.
	if err := f.feed.UnsavePost(ctx, alice, post); err != nil {
		t.Errorf("unsave after unfriend: %v", err)
	}
	if err := f.feed.UnsavePost(ctx, alice, post); !errors.Is(err, model.ErrSavedPostNotFound) {
		t.Errorf("second unsave error = %v, want %v", err, model.ErrSavedPostNotFound)
	}
}

func TestFeedService_ListSavedPosts_NewestFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.store.addUser("alice")
	p1 := f.store.addPost(alice, "p1")
	p2 := f.store.addPost(alice, "p2")

	for _, id := range []int64{p2, p1} {
		if _, err := f.feed.SavePost(ctx, alice, id); err != nil {
			t.Fatalf("save %d: %v", id, err)
		}
	}
	saved, _ := f.feed.ListSavedPosts(ctx, alice)
	if len(saved) != 2 || saved[0].OriginalPostID != p1 || saved[1].OriginalPostID != p2 {
		t.Errorf("order = %+v, want p1 then p2", saved)
	}
}

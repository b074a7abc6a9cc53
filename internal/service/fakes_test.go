package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"yochat/internal/model"
	"yochat/internal/queue"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================
//
// memStore backs every repository interface with plain maps so that the
// services can be exercised end to end. Transactions snapshot the state and
// restore it when fn fails, which mirrors a database rollback.

type pairKey [2]int64

func unordered(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type memState struct {
	users         map[int64]*model.User
	requests      []model.FriendRequest
	friendships   map[pairKey]time.Time
	blocks        map[pairKey]time.Time // directed: {blocker, blocked}
	posts         map[int64]model.Post
	reactions     map[pairKey]bool      // {post, user}
	saved         map[pairKey]time.Time // {user, post}
	notifications []model.Notification
	tokens        []model.DeviceToken
	nextID        int64
}

func (s *memState) clone() memState {
	c := *s
	c.users = make(map[int64]*model.User, len(s.users))
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	c.requests = append([]model.FriendRequest(nil), s.requests...)
	c.friendships = copyTimes(s.friendships)
	c.blocks = copyTimes(s.blocks)
	c.posts = make(map[int64]model.Post, len(s.posts))
	for k, v := range s.posts {
		c.posts[k] = v
	}
	c.reactions = make(map[pairKey]bool, len(s.reactions))
	for k, v := range s.reactions {
		c.reactions[k] = v
	}
	c.saved = copyTimes(s.saved)
	c.notifications = append([]model.Notification(nil), s.notifications...)
	c.tokens = append([]model.DeviceToken(nil), s.tokens...)
	return c
}

func copyTimes(m map[pairKey]time.Time) map[pairKey]time.Time {
	c := make(map[pairKey]time.Time, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

type memStore struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	state memState
	clock time.Time

	// failNotification makes the next notification insert fail.
	failNotification error
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			users:       make(map[int64]*model.User),
			friendships: make(map[pairKey]time.Time),
			blocks:      make(map[pairKey]time.Time),
			posts:       make(map[int64]model.Post),
			reactions:   make(map[pairKey]bool),
			saved:       make(map[pairKey]time.Time),
		},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick advances the fake clock so that ordering by time is deterministic.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *memStore) summary(id int64) model.UserSummary {
	u, ok := m.state.users[id]
	if !ok {
		return model.UserSummary{ID: id}
	}
	return model.UserSummary{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, ProfileImageURL: u.ProfileImageURL}
}

// addUser seeds a user and returns its ID.
func (m *memStore) addUser(username string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.state.users[id] = &model.User{ID: id, Username: username, CreatedAt: m.tick()}
	return id
}

// addPost seeds a post with one image and returns its ID.
func (m *memStore) addPost(authorID int64, caption string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.state.posts[id] = model.Post{
		ID:        id,
		UserID:    authorID,
		Caption:   &caption,
		CreatedAt: m.tick(),
		Images:    []model.PostImage{{ID: id, PostID: id, ImageURL: "https://cdn.test/" + caption}},
	}
	return id
}

func (m *memStore) notificationsFor(recipientID int64) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.state.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memStore) notificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.notifications)
}

func (m *memStore) reactionCount(postID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.posts[postID].ReactionCount
}

func (m *memStore) requestStatuses(a, b int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.state.requests {
		if unordered(r.SenderID, r.ReceiverID) == unordered(a, b) {
			out = append(out, r.Status)
		}
	}
	return out
}

func (m *memStore) requestsBetween(a, b int64) []model.FriendRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.FriendRequest
	for _, r := range m.state.requests {
		if unordered(r.SenderID, r.ReceiverID) == unordered(a, b) {
			out = append(out, r)
		}
	}
	return out
}

// WithinTx serializes transactions and rolls the whole state back when fn fails.
func (m *memStore) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// =============================================================================
// USERS
// =============================================================================

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.state.users {
		if u.Username == user.Username {
			return model.ErrUsernameExists
		}
	}
	user.ID = r.id()
	user.CreatedAt = r.tick()
	user.UpdatedAt = user.CreatedAt
	u := *user
	r.state.users[user.ID] = &u
	return nil
}

func (r memUsers) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.users[user.ID]; !ok {
		return model.ErrUserNotFound
	}
	for _, u := range r.state.users {
		if u.ID != user.ID && u.Username == user.Username {
			return model.ErrUsernameExists
		}
	}
	user.UpdatedAt = r.tick()
	u := *user
	r.state.users[user.ID] = &u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.state.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.state.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r memUsers) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.users[id]
	return ok, nil
}

func (r memUsers) Search(ctx context.Context, query string, excludeID int64, limit int) ([]model.UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.UserSummary{}
	for id, u := range r.state.users {
		if id != excludeID && strings.HasPrefix(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, r.summary(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// FRIENDS
// =============================================================================

type memFriends struct{ *memStore }

func (r memFriends) CreateRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64) (*model.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := unordered(senderID, receiverID)
	for _, req := range r.state.requests {
		if req.Status == model.RequestStatusPending && unordered(req.SenderID, req.ReceiverID) == key {
			return nil, model.ErrDuplicatePending
		}
	}
	req := model.FriendRequest{
		ID:         r.id(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.RequestStatusPending,
		CreatedAt:  r.tick(),
	}
	r.state.requests = append(r.state.requests, req)
	return &req, nil
}

func (r memFriends) ResolveRequest(ctx context.Context, tx *sqlx.Tx, senderID, receiverID int64, status string) (*model.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, req := range r.state.requests {
		if req.Status == model.RequestStatusPending && req.SenderID == senderID && req.ReceiverID == receiverID {
			now := r.tick()
			r.state.requests[i].Status = status
			r.state.requests[i].ResolvedAt = &now
			resolved := r.state.requests[i]
			return &resolved, nil
		}
	}
	return nil, model.ErrRequestNotFound
}

func (r memFriends) CancelPendingBetween(ctx context.Context, tx *sqlx.Tx, a, b int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i, req := range r.state.requests {
		if req.Status == model.RequestStatusPending && unordered(req.SenderID, req.ReceiverID) == unordered(a, b) {
			now := r.tick()
			r.state.requests[i].Status = model.RequestStatusCancelled
			r.state.requests[i].ResolvedAt = &now
			n++
		}
	}
	return n, nil
}

func (r memFriends) CreateFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := unordered(a, b)
	if _, ok := r.state.friendships[key]; ok {
		return model.ErrAlreadyFriends
	}
	r.state.friendships[key] = r.tick()
	return nil
}

func (r memFriends) DeleteFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := unordered(a, b)
	if _, ok := r.state.friendships[key]; !ok {
		return model.ErrNotFriends
	}
	delete(r.state.friendships, key)
	return nil
}

func (r memFriends) AreFriends(ctx context.Context, a, b int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.state.friendships[unordered(a, b)]
	return ok, nil
}

func (r memFriends) LockFriendship(ctx context.Context, tx *sqlx.Tx, a, b int64) (bool, error) {
	if a == b {
		return false, nil
	}
	return r.AreFriends(ctx, a, b)
}

func (r memFriends) GetFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Friend{}
	for key, since := range r.state.friendships {
		var other int64
		switch userID {
		case key[0]:
			other = key[1]
		case key[1]:
			other = key[0]
		default:
			continue
		}
		out = append(out, model.Friend{UserSummary: r.summary(other), FriendsSince: since})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memFriends) pending(match func(req model.FriendRequest) (int64, bool)) []model.PendingRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.PendingRequest{}
	for i := len(r.state.requests) - 1; i >= 0; i-- {
		req := r.state.requests[i]
		if req.Status != model.RequestStatusPending {
			continue
		}
		if other, ok := match(req); ok {
			out = append(out, model.PendingRequest{RequestID: req.ID, User: r.summary(other), CreatedAt: req.CreatedAt})
		}
	}
	return out
}

func (r memFriends) GetPendingReceived(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	return r.pending(func(req model.FriendRequest) (int64, bool) {
		return req.SenderID, req.ReceiverID == userID
	}), nil
}

func (r memFriends) GetPendingSent(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	return r.pending(func(req model.FriendRequest) (int64, bool) {
		return req.ReceiverID, req.SenderID == userID
	}), nil
}

func (r memFriends) CheckFriends(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(otherIDs))
	for _, id := range otherIDs {
		ok, _ := r.AreFriends(ctx, userID, id)
		out[id] = ok
	}
	return out, nil
}

func (r memFriends) CheckPending(ctx context.Context, userID int64, otherIDs []int64) (map[int64]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]bool, len(otherIDs))
	for _, id := range otherIDs {
		for _, req := range r.state.requests {
			if req.Status == model.RequestStatusPending && unordered(req.SenderID, req.ReceiverID) == unordered(userID, id) {
				out[id] = true
			}
		}
	}
	return out, nil
}

// =============================================================================
// BLOCKS
// =============================================================================

type memBlocks struct{ *memStore }

func (r memBlocks) Create(ctx context.Context, tx *sqlx.Tx, blockerID, blockedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{blockerID, blockedID}
	if _, ok := r.state.blocks[key]; !ok {
		r.state.blocks[key] = r.tick()
	}
	return nil
}

func (r memBlocks) Delete(ctx context.Context, blockerID, blockedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{blockerID, blockedID}
	if _, ok := r.state.blocks[key]; !ok {
		return model.ErrNotBlocked
	}
	delete(r.state.blocks, key)
	return nil
}

func (r memBlocks) IsBlockedEither(ctx context.Context, a, b int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ab := r.state.blocks[pairKey{a, b}]
	_, ba := r.state.blocks[pairKey{b, a}]
	return ab || ba, nil
}

func (r memBlocks) List(ctx context.Context, blockerID int64) ([]model.BlockedUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.BlockedUser{}
	for key, at := range r.state.blocks {
		if key[0] == blockerID {
			out = append(out, model.BlockedUser{UserSummary: r.summary(key[1]), BlockedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BlockedAt.After(out[j].BlockedAt) })
	return out, nil
}

// =============================================================================
// POSTS
// =============================================================================

type memPosts struct{ *memStore }

func (r memPosts) Create(ctx context.Context, userID int64, caption *string, images []model.NewPostImage) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.id()
	p := model.Post{ID: id, UserID: userID, Caption: caption, CreatedAt: r.tick()}
	for i, img := range images {
		p.Images = append(p.Images, model.PostImage{ID: r.id(), PostID: id, ImageURL: img.URL, ImageKey: img.Key, Position: i})
	}
	r.state.posts[id] = p
	return &p, nil
}

func (r memPosts) collect(viewerID int64, include func(p model.Post) bool) []model.FeedPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.FeedPost{}
	for _, p := range r.state.posts {
		if !include(p) {
			continue
		}
		_, saved := r.state.saved[pairKey{viewerID, p.ID}]
		out = append(out, model.FeedPost{
			Post:             p,
			Author:           r.summary(p.UserID),
			ViewerHasReacted: r.state.reactions[pairKey{p.ID, viewerID}],
			ViewerHasSaved:   saved,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r memPosts) GetVisible(ctx context.Context, viewerID int64) ([]model.FeedPost, error) {
	return r.collect(viewerID, func(p model.Post) bool {
		if p.UserID == viewerID {
			return true
		}
		_, ok := r.state.friendships[unordered(viewerID, p.UserID)]
		return ok
	}), nil
}

func (r memPosts) GetByAuthor(ctx context.Context, authorID, viewerID int64) ([]model.FeedPost, error) {
	return r.collect(viewerID, func(p model.Post) bool { return p.UserID == authorID }), nil
}

func (r memPosts) LockForUpdate(ctx context.Context, tx *sqlx.Tx, postID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.posts[postID]
	if !ok {
		return 0, model.ErrPostNotFound
	}
	return p.UserID, nil
}

func (r memPosts) AddReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{postID, userID}
	if r.state.reactions[key] {
		return false, nil
	}
	r.state.reactions[key] = true
	return true, nil
}

func (r memPosts) RemoveReaction(ctx context.Context, tx *sqlx.Tx, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{postID, userID}
	if !r.state.reactions[key] {
		return false, nil
	}
	delete(r.state.reactions, key)
	return true, nil
}

func (r memPosts) IncrementReactionCount(ctx context.Context, tx *sqlx.Tx, postID int64, delta int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.posts[postID]
	if !ok {
		return 0, model.ErrPostNotFound
	}
	p.ReactionCount += delta
	if p.ReactionCount < 0 {
		p.ReactionCount = 0
	}
	r.state.posts[postID] = p
	return p.ReactionCount, nil
}

// =============================================================================
// SAVED POSTS
// =============================================================================

type memSaved struct{ *memStore }

func (r memSaved) Create(ctx context.Context, tx *sqlx.Tx, userID, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.posts[postID]; !ok {
		return model.ErrPostNotFound
	}
	key := pairKey{userID, postID}
	if _, ok := r.state.saved[key]; ok {
		return model.ErrDuplicateSave
	}
	r.state.saved[key] = r.tick()
	return nil
}

func (r memSaved) Delete(ctx context.Context, userID, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{userID, postID}
	if _, ok := r.state.saved[key]; !ok {
		return model.ErrSavedPostNotFound
	}
	delete(r.state.saved, key)
	return nil
}

func (r memSaved) ListByUser(ctx context.Context, userID int64) ([]model.SavedPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SavedPost{}
	for key, at := range r.state.saved {
		if key[0] != userID {
			continue
		}
		p := r.state.posts[key[1]]
		owner := r.summary(p.UserID)
		out = append(out, model.SavedPost{
			OriginalPostID:      p.ID,
			Caption:             p.Caption,
			PostOwnerID:         p.UserID,
			PostOwnerUsername:   owner.Username,
			PostOwnerProfileURL: owner.ProfileImageURL,
			PostCreatedAt:       p.CreatedAt,
			ReactionCount:       p.ReactionCount,
			SavedAt:             at,
			Images:              p.Images,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// =============================================================================
// NOTIFICATIONS AND DEVICE TOKENS
// =============================================================================

type memNotifications struct{ *memStore }

func (r memNotifications) Create(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNotification; err != nil {
		r.failNotification = nil
		return err
	}
	n.ID = r.id()
	n.IsRead = false
	n.CreatedAt = r.tick()
	stored := *n
	stored.SenderUsername = r.summary(n.SenderID).Username
	r.state.notifications = append(r.state.notifications, stored)
	return nil
}

func (r memNotifications) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.state.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, model.ErrNotificationNotFound
}

func (r memNotifications) List(ctx context.Context, recipientID int64, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Notification{}
	for i := len(r.state.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.state.notifications[i]; n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r memNotifications) MarkAsRead(ctx context.Context, recipientID int64, ids []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i, n := range r.state.notifications {
		if n.RecipientID == recipientID && want[n.ID] {
			r.state.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r memNotifications) MarkAllAsRead(ctx context.Context, recipientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.state.notifications {
		if n.RecipientID == recipientID {
			r.state.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r memNotifications) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.state.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

type memTokens struct{ *memStore }

func (r memTokens) Upsert(ctx context.Context, userID int64, token, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.tick()
	for i, t := range r.state.tokens {
		if t.Token == token {
			r.state.tokens[i].UserID = userID
			r.state.tokens[i].Platform = platform
			r.state.tokens[i].UpdatedAt = now
			return nil
		}
	}
	r.state.tokens = append(r.state.tokens, model.DeviceToken{
		ID: r.id(), UserID: userID, Token: token, Platform: platform, CreatedAt: now, UpdatedAt: now,
	})
	return nil
}

func (r memTokens) GetByUserID(ctx context.Context, userID int64) ([]model.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DeviceToken
	for _, t := range r.state.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTokens) Delete(ctx context.Context, userID int64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.state.tokens[:0]
	for _, t := range r.state.tokens {
		if !(t.UserID == userID && t.Token == token) {
			kept = append(kept, t)
		}
	}
	r.state.tokens = kept
	return nil
}

// =============================================================================
// PUBLISHER
// =============================================================================

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// =============================================================================
// FIXTURE
// =============================================================================

type fixture struct {
	store     *memStore
	publisher *recordingPublisher
	friends   *FriendService
	feed      *FeedService
	notifs    *NotificationService
	users     *UserService
}

func newFixture() *fixture {
	store := newMemStore()
	pub := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: pub,
		friends:   NewFriendService(memFriends{store}, memUsers{store}, memBlocks{store}, memNotifications{store}, store, pub),
		feed:      NewFeedService(memPosts{store}, memSaved{store}, memFriends{store}, memNotifications{store}, store, pub),
		notifs:    NewNotificationService(memNotifications{store}, memTokens{store}),
		users:     NewUserService(memUsers{store}, memFriends{store}),
	}
}

// befriend drives a request through acceptance.
func (f *fixture) befriend(t *testing.T, a, b int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.friends.SendRequest(ctx, a, b); err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := f.friends.AcceptRequest(ctx, b, a); err != nil {
		t.Fatalf("accept request: %v", err)
	}
}

func (r memTokens) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drop := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		drop[t] = true
	}
	kept := r.state.tokens[:0]
	for _, t := range r.state.tokens {
		if !drop[t.Token] {
			kept = append(kept, t)
		}
	}
	n := int64(len(r.state.tokens) - len(kept))
	r.state.tokens = kept
	return n, nil
}

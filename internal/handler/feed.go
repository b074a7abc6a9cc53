package handler

import (
	"net/http"

	"yochat/internal/httputil"
	"yochat/internal/model"
	"yochat/internal/service"
)

type FeedHandler struct {
	feedService *service.FeedService
}

func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// GetPosts handles GET /feed/posts
// Returns the caller's posts and their friends' posts, newest first.
func (h *FeedHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	feed, err := h.feedService.GetVisiblePosts(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, feed)
}

// Like handles POST /feed/like
// Toggles the caller's reaction and returns the new state with the post's total.
func (h *FeedHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.PostIDRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.PostID, "post_id") {
		return
	}

	result, err := h.feedService.ToggleReaction(r.Context(), userID, req.PostID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// SavePost handles POST /feed/savePost
// Saving an already saved post succeeds.
func (h *FeedHandler) SavePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.PostIDRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.PostID, "post_id") {
		return
	}

	result, err := h.feedService.SavePost(r.Context(), userID, req.PostID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadySaved {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, result)
}

// UnsavePost handles POST /feed/unsavePost
func (h *FeedHandler) UnsavePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.PostIDRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.PostID, "post_id") {
		return
	}

	if err := h.feedService.UnsavePost(r.Context(), userID, req.PostID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "Post removed from saved")
}

// Saved handles GET /feed/saved
func (h *FeedHandler) Saved(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	saved, err := h.feedService.ListSavedPosts(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"saved_posts": saved,
	})
}

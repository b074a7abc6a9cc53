package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"yochat/internal/httputil"
	"yochat/internal/model"
	"yochat/internal/service"
)

type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// SendRequest handles POST /friendship/sendRequest
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.SendRequestRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.ReceiverID, "receiver_id") {
		return
	}

	request, err := h.friendService.SendRequest(r.Context(), userID, req.ReceiverID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, request)
}

// AcceptRequest handles POST /friendship/acceptRequest
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.RespondRequestRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.SenderID, "sender_id") {
		return
	}

	if err := h.friendService.AcceptRequest(r.Context(), userID, req.SenderID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "Friend request accepted")
}

// DeclineRequest handles POST /friendship/declineRequest
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.RespondRequestRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.SenderID, "sender_id") {
		return
	}

	if err := h.friendService.DeclineRequest(r.Context(), userID, req.SenderID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "Friend request declined")
}

// CancelRequest handles POST /friendship/cancelRequest
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.SendRequestRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.ReceiverID, "receiver_id") {
		return
	}

	if err := h.friendService.CancelRequest(r.Context(), userID, req.ReceiverID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "Friend request cancelled")
}

// Unfriend handles POST /friendship/unfriend
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.UnfriendRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.UserID, "user2_id") {
		return
	}

	if err := h.friendService.Unfriend(r.Context(), userID, req.UserID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "Unfriended successfully")
}

// ListFriends handles GET /friendship/list/{username}
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	username := chi.URLParam(r, "username")
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}

	resp, err := h.friendService.ListFriendsByUsername(r.Context(), username)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// PendingRequests handles GET /friendship/pendingRequests
// Requests received by the caller that are still awaiting a response.
func (h *FriendHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.ListPending(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
	})
}

// SentRequests handles GET /friendship/sentRequests
func (h *FriendHandler) SentRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.ListSent(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
	})
}

// Block handles POST /users/block
func (h *FriendHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.BlockRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.BlockedID, "blocked_id") {
		return
	}

	if err := h.friendService.Block(r.Context(), userID, req.BlockedID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "User blocked")
}

// Unblock handles POST /users/unblock
func (h *FriendHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.BlockRequest
	if !decodeJSON(w, r, &req) || !requireID(w, req.BlockedID, "blocked_id") {
		return
	}

	if err := h.friendService.Unblock(r.Context(), userID, req.BlockedID); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeMessage(w, "User unblocked")
}

// ListBlocked handles GET /users/blocked
func (h *FriendHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.friendService.ListBlocked(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

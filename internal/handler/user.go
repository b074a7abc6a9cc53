package handler

import (
	"log"
	"net/http"

	"yochat/internal/httputil"
	"yochat/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Search handles GET /users/search?q=
// Results carry the viewer's friendship status with each user. An empty query yields an empty list.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentUser(w, r)
	if !ok {
		return
	}

	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"), viewerID)
	if err != nil {
		log.Printf("[ERROR] Search handler: viewer=%d err=%v", viewerID, err)
		httputil.WriteInternalError(w, "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

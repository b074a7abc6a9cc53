package handler

import (
	"net/http"
	"strings"

	"yochat/internal/httputil"
	"yochat/internal/model"
	"yochat/internal/service"
)

type MediaHandler struct {
	media service.MediaStore
}

func NewMediaHandler(media service.MediaStore) *MediaHandler {
	return &MediaHandler{media: media}
}

// PresignPostUpload handles POST /media/posts/presign
// Returns a presigned URL for uploading a post image directly to R2.
func (h *MediaHandler) PresignPostUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req model.PresignPostUploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		httputil.WriteBadRequest(w, "content_type is required")
		return
	}

	res, err := h.media.PresignPostUpload(r.Context(), userID, req)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

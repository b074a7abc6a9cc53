package handler

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"yochat/internal/httputil"
	"yochat/internal/model"
	"yochat/internal/service"
)

type PostHandler struct {
	postService    *service.PostService
	uploadsEnabled bool
}

// NewPostHandler builds the post endpoints. Without object storage only listing is available.
func NewPostHandler(postService *service.PostService, uploadsEnabled bool) *PostHandler {
	return &PostHandler{
		postService:    postService,
		uploadsEnabled: uploadsEnabled,
	}
}

// Create handles POST /feed/createPost
// Accepts multipart (caption, images) or JSON (caption, image_keys) after presigned uploads.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !h.uploadsEnabled {
		httputil.WriteInternalError(w, "Media storage is not configured")
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req model.CreatePostRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		post, err := h.postService.CreateFromKeys(r.Context(), userID, req)
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, post)
		return
	}

	maxFormSize := int64(model.MaxPostImageCount*model.MaxPostImageSize) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data or application/json")
			return
		}
		if isBodyTooLarge(err) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Request body too large")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	var caption *string
	if c := strings.TrimSpace(r.FormValue("caption")); c != "" {
		caption = &c
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		files = r.MultipartForm.File["images[]"]
	}

	post, err := h.postService.CreateFromUploads(r.Context(), userID, caption, files)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// MyPosts handles GET /feed/myPosts
func (h *PostHandler) MyPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.postService.ListMyPosts(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"posts": posts,
	})
}

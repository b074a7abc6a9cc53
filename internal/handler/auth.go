package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"yochat/internal/config"
	"yochat/internal/httputil"
	"yochat/internal/model"
	"yochat/internal/service"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
	media       service.MediaStore // nil when object storage is not configured
	config      *config.Config
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService, media service.MediaStore, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
		media:       media,
		config:      cfg,
	}
}

// Register handles multipart sign-up with an optional profile_image and a default image fallback.
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	maxFormSize := int64(model.MaxProfileImageSize) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if isBodyTooLarge(err) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Profile image exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" {
		httputil.WriteBadRequest(w, "Username is required")
		return
	}
	if password == "" {
		httputil.WriteBadRequest(w, "Password is required")
		return
	}

	req := model.RegisterRequest{
		Username:    username,
		Password:    password,
		DisplayName: strings.TrimSpace(r.FormValue("display_name")),
	}

	uploadedKey := ""
	file, header, err := r.FormFile("profile_image")
	switch {
	case err == nil:
		defer file.Close()
		if h.media == nil {
			httputil.WriteInternalError(w, "Media storage is not configured")
			return
		}
		upload, err := h.media.UploadProfileImage(r.Context(), file, header)
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		uploadedKey = upload.Key
		req.ProfileImageURL = &upload.URL
		req.ProfileImageKey = &upload.Key
	case errors.Is(err, http.ErrMissingFile):
		if h.config.DefaultProfileImageURL != "" {
			req.ProfileImageURL = &h.config.DefaultProfileImageURL
		}
		if h.config.DefaultProfileImageKey != "" {
			req.ProfileImageKey = &h.config.DefaultProfileImageKey
		}
	default:
		httputil.WriteBadRequest(w, "Invalid profile image upload")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if uploadedKey != "" {
			h.deleteImage(r, uploadedKey)
		}
		httputil.WriteDomainError(w, err)
		return
	}

	tokens, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.UserAgent())
	if err != nil {
		log.Printf("[AuthHandler] Register: token issue failed for user=%d: %v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.LoginResponse{User: user, TokenPair: *tokens})
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Username and password are required")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid username or password")
			return
		}
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	tokens, err := h.authService.GenerateTokenPair(r.Context(), user.ID, r.UserAgent())
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate tokens")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{User: user, TokenPair: *tokens})
}

// Me returns the currently authenticated user
// GET /me, GET /users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the caller's profile from a multipart form.
// username and display_name change only when present; profileImage (or profile_image) replaces the avatar.
// PUT /users/update
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	maxFormSize := int64(model.MaxProfileImageSize) + 1024*1024
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if isBodyTooLarge(err) {
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Profile image exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	var req model.UpdateProfileRequest
	if v, ok := r.MultipartForm.Value["username"]; ok && len(v) > 0 {
		req.Username = &v[0]
	}
	if v, ok := r.MultipartForm.Value["display_name"]; ok && len(v) > 0 {
		req.DisplayName = &v[0]
	}

	uploadedKey := ""
	file, header, err := r.FormFile("profileImage")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("profile_image")
	}
	switch {
	case err == nil:
		defer file.Close()
		if h.media == nil {
			httputil.WriteInternalError(w, "Media storage is not configured")
			return
		}
		upload, err := h.media.UploadProfileImage(r.Context(), file, header)
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		uploadedKey = upload.Key
		req.ProfileImageURL = &upload.URL
		req.ProfileImageKey = &upload.Key
	case errors.Is(err, http.ErrMissingFile):
	default:
		httputil.WriteBadRequest(w, "Invalid profile image upload")
		return
	}

	update, err := h.userService.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		if uploadedKey != "" {
			h.deleteImage(r, uploadedKey)
		}
		httputil.WriteDomainError(w, err)
		return
	}

	if old := update.ReplacedImageKey; old != nil && *old != "" && *old != uploadedKey && *old != h.config.DefaultProfileImageKey {
		h.deleteImage(r, *old)
	}

	log.Printf("[AuthHandler] Profile updated: user=%d image_changed=%v", userID, uploadedKey != "")
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    update.User,
	})
}

func (h *AuthHandler) deleteImage(r *http.Request, key string) {
	if err := h.media.DeleteObject(r.Context(), key); err != nil {
		log.Printf("[AuthHandler] Failed to delete profile image: key=%s err=%v", key, err)
	}
}

// Refresh handles token refresh
// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	tokens, _, err := h.authService.RefreshTokens(r.Context(), req.RefreshToken, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRefreshTokenNotFound):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid refresh token")
		case errors.Is(err, model.ErrRefreshTokenExpired):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Refresh token has expired")
		case errors.Is(err, model.ErrRefreshTokenReused):
			httputil.WriteUnauthorizedWithCode(w, model.CodeTokenReused, "Refresh token reuse detected. Please login again.")
		default:
			httputil.WriteInternalError(w, "Failed to refresh tokens")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokens)
}

// Logout revokes one refresh token. Unknown tokens still log out successfully.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteBadRequest(w, "Refresh token is required")
		return
	}

	if err := h.authService.RevokeRefreshToken(r.Context(), req.RefreshToken); err != nil {
		httputil.WriteInternalError(w, "Failed to logout")
		return
	}
	writeMessage(w, "Logged out successfully")
}

// LogoutAll handles logout from all devices
// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.authService.RevokeAllUserTokens(r.Context(), userID); err != nil {
		httputil.WriteInternalError(w, "Failed to logout from all devices")
		return
	}
	writeMessage(w, "Logged out from all devices")
}

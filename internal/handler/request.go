package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"yochat/internal/httputil"
	"yochat/internal/transport/http/middleware"
)

// maxJSONBody caps every JSON request body.
const maxJSONBody = 1 << 20

// currentUser returns the authenticated user's ID or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return userID, true
}

// decodeJSON decodes the body into dst or writes a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requireID rejects missing or non-positive identifiers in a request body.
func requireID(w http.ResponseWriter, id int64, field string) bool {
	if id <= 0 {
		httputil.WriteBadRequest(w, field+" is required")
		return false
	}
	return true
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func writeMessage(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// isBodyTooLarge reports whether a body read hit http.MaxBytesReader's limit.
// Multipart parsing does not always wrap the original error.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/internal/store"
	"github.com/lgu-records/recordkeeper/internal/transfer"
	"github.com/lgu-records/recordkeeper/types"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges an action that returns no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

func usernameFromContext(ctx context.Context) (string, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return "", errors.New("missing subject")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("invalid subject")
	}
	return subject, nil
}

// currentUser loads the account named by the token subject. A token for a
// user that no longer exists is treated as unauthenticated.
func currentUser(r *http.Request, users *services.UserService) (types.User, bool, error) {
	username, err := usernameFromContext(r.Context())
	if err != nil {
		return types.User{}, false, nil
	}
	user, err := users.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, false, nil
		}
		return types.User{}, false, err
	}
	return user, true, nil
}

// actor resolves the acting user or writes the failure response.
func actor(w http.ResponseWriter, r *http.Request, users *services.UserService) (types.User, bool) {
	user, ok, err := currentUser(r, users)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return types.User{}, false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.User{}, false
	}
	return user, true
}

// pathParam returns a decoded URL parameter. Record IDs carry spaces and
// apostrophes, so clients send them escaped.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service errors onto status codes. Anything it
// does not recognize is reported as "failed to <action>".
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, transfer.ErrUnsupportedFormat),
		errors.Is(err, transfer.ErrMissingColumns),
		errors.Is(err, transfer.ErrNoValidRows),
		errors.Is(err, transfer.ErrUnreadable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, access.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

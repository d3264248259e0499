package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/internal/services"
)

const keepAliveInterval = 25 * time.Second

// EventHandler streams record changes as server-sent events.
type EventHandler struct {
	hub         *events.Hub
	userService *services.UserService
	keepAlive   time.Duration
}

func NewEventHandler(hub *events.Hub, userService *services.UserService) *EventHandler {
	return &EventHandler{hub: hub, userService: userService, keepAlive: keepAliveInterval}
}

// EventRouter registers the event stream on the given router.
func EventRouter(
	r chi.Router,
	hub *events.Hub,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewEventHandler(hub, userService)
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.Stream)
}

// Stream holds the connection open and writes one "data:" frame per event
// until the client goes away.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r, h.userService); !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The server write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ch, unregister := h.hub.Register()
	defer unregister()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.hub.Done():
			return
		case payload := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

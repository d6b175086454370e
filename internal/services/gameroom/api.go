package gameroom

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CreateSessionResponse is returned by POST /sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// RegisterHandlers mounts the read-only registry API and session creation on r.
func RegisterHandlers(r chi.Router, rm *RoomManager) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", handleListSessions(rm))
		r.Post("/", handleCreateSession(rm))
		r.Get("/{id}", handleGetSession(rm))
	})
}

func handleListSessions(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rm.List())
	}
}

// handleCreateSession opens an empty waiting session; the first player to join it
// becomes the host.
func handleCreateSession(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, err := rm.GetOrCreate("")
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: room.ID()})
	}
}

func handleGetSession(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room, ok := rm.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		snap, err := room.Snapshot(ctx)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

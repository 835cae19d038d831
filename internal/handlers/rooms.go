package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/room"
	"github.com/yachtlive/yacht/internal/store"
)

// CreateRoomHandler opens a new waiting room hosted by the caller.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
		return
	}

	var cfg room.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && err.Error() != "EOF" {
		http.Error(w, "bad room request payload", http.StatusBadRequest)
		return
	}

	created, err := s.Rooms.Create(r.Context(), ident.UserID, ident.Nickname, cfg)
	if err != nil {
		s.Logger.WithError(err).Warn("room create failed")
		http.Error(w, "could not create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(created)
}

// ListRoomsHandler returns rooms newest first. Query params: gameType,
// status (waiting|playing|finished), all=true to include finished rooms.
func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := identityFromRequest(r); err != nil {
		http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
		return
	}

	opts := room.ListOptions{
		GameType: r.URL.Query().Get("gameType"),
		Status:   models.RoomStatus(r.URL.Query().Get("status")),
		ShowAll:  r.URL.Query().Get("all") == "true",
	}
	rooms, err := s.Rooms.ListRooms(r.Context(), opts)
	if err != nil {
		s.Logger.WithError(err).Warn("room list failed")
		http.Error(w, "could not list rooms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rooms)
}

// GetRoomHandler returns one room by id from the path /rooms/{id}.
func (s *Server) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := identityFromRequest(r); err != nil {
		http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
		return
	}
	roomID, err := pathID(r.URL.Path, "/rooms/")
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	got, err := s.Rooms.Get(r.Context(), roomID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "could not read room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(got)
}

// Package room manages the lobby side of a session: membership, readiness,
// host privileges and the waiting -> playing transition. Like the game
// engine, every operation is a snapshot read followed by a partial-field
// write against the shared room document; nothing here assumes the store
// rejects stale writes.
package room

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/store"
)

// DefaultMaxPlayers caps a room when the creator does not choose a size.
const DefaultMaxPlayers = 4

// RoomPath is the document path for a room in the rooms collection.
func RoomPath(roomID uuid.UUID) string {
	return "rooms/" + roomID.String()
}

// Config carries the creator-chosen room settings.
type Config struct {
	Title      string `json:"title"`
	GameType   string `json:"gameType"`
	MaxPlayers int    `json:"maxPlayers"`
}

// ListOptions filter ListRooms. Zero value lists joinable rooms (waiting or
// playing) of every game type, newest first.
type ListOptions struct {
	GameType string
	Status   models.RoomStatus
	ShowAll  bool
}

// Service mediates room lifecycle operations against the document store.
type Service struct {
	store store.Store
	log   *logrus.Logger

	// CreateGame seeds the game document when a room starts. Start creates
	// the game before flipping the room to playing, so a room observed
	// playing always has a game behind it.
	CreateGame func(ctx context.Context, room *models.Room) error

	// Announce, when non-nil, posts a system chat notice for membership
	// changes (join, leave, kick).
	Announce func(ctx context.Context, roomID uuid.UUID, text string)
}

// NewService builds a Service over the given store.
func NewService(st store.Store, logger *logrus.Logger) *Service {
	return &Service{store: st, log: logger}
}

// Create opens a new waiting room with the host as its sole, auto-ready
// player.
func (s *Service) Create(ctx context.Context, hostID uuid.UUID, hostNickname string, cfg Config) (*models.Room, error) {
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = DefaultMaxPlayers
	}
	if cfg.GameType == "" {
		cfg.GameType = "yacht"
	}
	if cfg.Title == "" {
		cfg.Title = fmt.Sprintf("%s's room", hostNickname)
	}

	host := models.Player{ID: hostID, Nickname: hostNickname, IsReady: true, IsConnected: true}
	createdAt := time.Now().UTC()
	id, err := s.store.CreateDocument(ctx, "rooms", store.Fields{
		"title":        cfg.Title,
		"gameType":     cfg.GameType,
		"hostId":       hostID,
		"hostNickname": hostNickname,
		"maxPlayers":   cfg.MaxPlayers,
		"status":       models.RoomWaiting,
		"createdAt":    createdAt,
		"players":      []models.Player{host},
	})
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	roomID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("store returned non-uuid room id %q: %w", id, err)
	}

	s.log.WithFields(logrus.Fields{"room": roomID, "host": hostID}).Info("room created")
	return &models.Room{
		ID:           roomID,
		Title:        cfg.Title,
		GameType:     cfg.GameType,
		HostID:       hostID,
		HostNickname: hostNickname,
		MaxPlayers:   cfg.MaxPlayers,
		Status:       models.RoomWaiting,
		CreatedAt:    createdAt,
		Players:      []models.Player{host},
	}, nil
}

// Get snapshot-reads the latest room document.
func (s *Service) Get(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	var r models.Room
	if err := s.store.GetDocument(ctx, RoomPath(roomID), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Subscribe pushes every subsequent state of one room document.
func (s *Service) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan store.Snapshot, func(), error) {
	return s.store.Subscribe(ctx, RoomPath(roomID))
}

// SubscribeList pushes a snapshot whenever any room in the collection
// changes, for lobby list views.
func (s *Service) SubscribeList(ctx context.Context) (<-chan store.Snapshot, func(), error) {
	return s.store.Subscribe(ctx, "rooms")
}

// ListRooms returns rooms matching opts, newest first.
func (s *Service) ListRooms(ctx context.Context, opts ListOptions) ([]models.Room, error) {
	snaps, err := s.store.ListDocuments(ctx, "rooms")
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	rooms := make([]models.Room, 0, len(snaps))
	for _, snap := range snaps {
		var r models.Room
		if err := snap.Decode(&r); err != nil {
			s.log.WithError(err).WithField("path", snap.Path).Warn("skipping undecodable room")
			continue
		}
		if opts.GameType != "" && r.GameType != opts.GameType {
			continue
		}
		if !opts.ShowAll {
			if opts.Status != "" {
				if r.Status != opts.Status {
					continue
				}
			} else if r.Status != models.RoomWaiting && r.Status != models.RoomPlaying {
				continue
			}
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.After(rooms[j].CreatedAt) })
	return rooms, nil
}

// Join appends a new, not-ready player to the room.
func (s *Service) Join(ctx context.Context, roomID, playerID uuid.UUID, nickname string) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if r.PlayerIndex(playerID) >= 0 {
		return ErrAlreadyInRoom
	}
	if len(r.Players) >= r.MaxPlayers {
		return ErrRoomFull
	}

	players := append(append([]models.Player(nil), r.Players...), models.Player{
		ID:          playerID,
		Nickname:    nickname,
		IsConnected: true,
	})
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"players": players}); err != nil {
		return fmt.Errorf("join room %s: %w", roomID, err)
	}
	s.announce(ctx, roomID, fmt.Sprintf("%s joined the room", nickname))
	return nil
}

// Leave removes the player. A departing host destroys the room outright; no
// successor host is elected.
func (s *Service) Leave(ctx context.Context, roomID, playerID uuid.UUID) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	idx := r.PlayerIndex(playerID)
	if idx < 0 {
		return ErrNotInRoom
	}

	if playerID == r.HostID {
		if err := s.store.DeleteDocument(ctx, RoomPath(roomID)); err != nil {
			return fmt.Errorf("delete room %s: %w", roomID, err)
		}
		s.log.WithField("room", roomID).Info("room deleted, host left")
		return nil
	}

	nickname := r.Players[idx].Nickname
	players := append(append([]models.Player(nil), r.Players[:idx]...), r.Players[idx+1:]...)
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"players": players}); err != nil {
		return fmt.Errorf("leave room %s: %w", roomID, err)
	}
	s.announce(ctx, roomID, fmt.Sprintf("%s left the room", nickname))
	return nil
}

// ToggleReady flips the player's ready flag. The host's flag is never
// consulted by Start but may still be toggled.
func (s *Service) ToggleReady(ctx context.Context, roomID, playerID uuid.UUID) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	idx := r.PlayerIndex(playerID)
	if idx < 0 {
		return ErrNotInRoom
	}

	players := append([]models.Player(nil), r.Players...)
	players[idx].IsReady = !players[idx].IsReady
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"players": players}); err != nil {
		return fmt.Errorf("toggle ready in room %s: %w", roomID, err)
	}
	return nil
}

// SetConnected updates a player's presence flag. Unknown players are
// ignored: a subscriber may disconnect after being kicked.
func (s *Service) SetConnected(ctx context.Context, roomID, playerID uuid.UUID, connected bool) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	idx := r.PlayerIndex(playerID)
	if idx < 0 || r.Players[idx].IsConnected == connected {
		return nil
	}

	players := append([]models.Player(nil), r.Players...)
	players[idx].IsConnected = connected
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"players": players}); err != nil {
		return fmt.Errorf("set connected in room %s: %w", roomID, err)
	}
	return nil
}

// Kick removes targetID from the room. Host only; the host themselves can
// never be kicked.
func (s *Service) Kick(ctx context.Context, roomID, actorID, targetID uuid.UUID) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if actorID != r.HostID {
		return ErrNotHost
	}
	if targetID == r.HostID {
		return ErrCannotKickHost
	}
	idx := r.PlayerIndex(targetID)
	if idx < 0 {
		return ErrNotInRoom
	}

	nickname := r.Players[idx].Nickname
	players := append(append([]models.Player(nil), r.Players[:idx]...), r.Players[idx+1:]...)
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"players": players}); err != nil {
		return fmt.Errorf("kick from room %s: %w", roomID, err)
	}
	s.announce(ctx, roomID, fmt.Sprintf("%s was kicked from the room", nickname))
	return nil
}

// Start transitions the room to playing and seeds its game. Host only; needs
// at least two players and every non-host player ready.
func (s *Service) Start(ctx context.Context, roomID, actorID uuid.UUID) error {
	r, err := s.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if actorID != r.HostID {
		return ErrNotHost
	}
	if r.Status != models.RoomWaiting {
		return ErrAlreadyStarted
	}
	if len(r.Players) < 2 {
		return ErrNotAllReady
	}
	for _, p := range r.Players {
		if p.ID != r.HostID && !p.IsReady {
			return ErrNotAllReady
		}
	}

	if s.CreateGame != nil {
		if err := s.CreateGame(ctx, r); err != nil {
			return fmt.Errorf("start room %s: %w", roomID, err)
		}
	}
	if err := s.store.UpdateFields(ctx, RoomPath(roomID), store.Fields{"status": models.RoomPlaying}); err != nil {
		return fmt.Errorf("start room %s: %w", roomID, err)
	}
	s.log.WithFields(logrus.Fields{"room": roomID, "players": len(r.Players)}).Info("game starting")
	return nil
}

func (s *Service) announce(ctx context.Context, roomID uuid.UUID, text string) {
	if s.Announce != nil {
		s.Announce(ctx, roomID, text)
	}
}

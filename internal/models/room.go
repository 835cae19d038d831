package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus tracks where a room is in its lifecycle.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Player is one seat in a room. IsReady is only meaningful while the room
// is waiting; the host is implicitly ready and their flag is never consulted.
type Player struct {
	ID          uuid.UUID `json:"id"`
	Nickname    string    `json:"nickname"`
	IsReady     bool      `json:"isReady"`
	IsConnected bool      `json:"isConnected"`
}

// Room is one lobby entry in the rooms collection. Players are kept in join
// order; that order is also the turn rotation once a game starts.
type Room struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	GameType     string     `json:"gameType"`
	HostID       uuid.UUID  `json:"hostId"`
	HostNickname string     `json:"hostNickname"`
	MaxPlayers   int        `json:"maxPlayers"`
	Status       RoomStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	Players      []Player   `json:"players"`
}

// PlayerIndex returns the seat index of id, or -1 if not present.
func (r *Room) PlayerIndex(id uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

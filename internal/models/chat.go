package models

import "time"

// SystemUserID marks chat messages emitted by the service itself
// (join/leave/kick notices) rather than a player.
const SystemUserID = "system"

// ChatMessage is one entry in a room's chat subcollection. UserID is a string
// rather than a uuid so system messages can share the same shape.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Nickname  string    `json:"nickname"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

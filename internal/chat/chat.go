// Package chat stores per-room chat messages as a subcollection of the room
// document, one message per document.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/store"
)

// DefaultHistoryLimit bounds History when the caller passes no limit.
const DefaultHistoryLimit = 100

// ChatPath is the collection path for a room's messages.
func ChatPath(roomID uuid.UUID) string {
	return "rooms/" + roomID.String() + "/chat"
}

// Service reads and writes room chat against the document store.
type Service struct {
	store store.Store
	log   *logrus.Logger
}

// NewService builds a Service over the given store.
func NewService(st store.Store, logger *logrus.Logger) *Service {
	return &Service{store: st, log: logger}
}

// Send appends a player message. Empty or whitespace-only text is dropped.
func (s *Service) Send(ctx context.Context, roomID, userID uuid.UUID, nickname, text string) error {
	return s.append(ctx, roomID, userID.String(), nickname, text)
}

// System appends a service-authored notice (joins, leaves, kicks).
func (s *Service) System(ctx context.Context, roomID uuid.UUID, text string) error {
	return s.append(ctx, roomID, models.SystemUserID, "system", text)
}

func (s *Service) append(ctx context.Context, roomID uuid.UUID, userID, nickname, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	_, err := s.store.CreateDocument(ctx, ChatPath(roomID), store.Fields{
		"userId":    userID,
		"nickname":  nickname,
		"text":      text,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("send chat in room %s: %w", roomID, err)
	}
	return nil
}

// History returns up to limit messages in timestamp order, oldest first.
func (s *Service) History(ctx context.Context, roomID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	snaps, err := s.store.ListDocuments(ctx, ChatPath(roomID))
	if err != nil {
		return nil, fmt.Errorf("chat history for room %s: %w", roomID, err)
	}
	msgs := make([]models.ChatMessage, 0, len(snaps))
	for _, snap := range snaps {
		var m models.ChatMessage
		if err := snap.Decode(&m); err != nil {
			s.log.WithError(err).WithField("path", snap.Path).Warn("skipping undecodable chat message")
			continue
		}
		msgs = append(msgs, m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Subscribe pushes a snapshot for every new message in the room.
func (s *Service) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan store.Snapshot, func(), error) {
	return s.store.Subscribe(ctx, ChatPath(roomID))
}

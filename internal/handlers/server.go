package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/chat"
	"github.com/yachtlive/yacht/internal/game"
	"github.com/yachtlive/yacht/internal/room"
)

// Server bundles the services the HTTP and WebSocket handlers mediate.
type Server struct {
	Logger *logrus.Logger
	Rooms  *room.Service
	Games  *game.Service
	Chat   *chat.Service
}

// NewServer wires the handler layer over already-constructed services.
func NewServer(logger *logrus.Logger, rooms *room.Service, games *game.Service, ch *chat.Service) *Server {
	return &Server{Logger: logger, Rooms: rooms, Games: games, Chat: ch}
}

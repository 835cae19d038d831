package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/yachtlive/yacht/internal/auth"
	"github.com/yachtlive/yacht/internal/game"
	"github.com/yachtlive/yacht/internal/middleware"
	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/scoring"
	"github.com/yachtlive/yacht/internal/store"
)

// GameMessage is one client action on the game channel.
type GameMessage struct {
	Type     string `json:"type"`
	Index    int    `json:"index"`              // hold
	Category string `json:"category,omitempty"` // select
}

// GameWSHandler subscribes a client to one game document and translates
// client actions into turn engine operations. Validation errors go back to
// the acting client only; everyone else just observes the next snapshot.
func (s *Server) GameWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := pathID(r.URL.Path, "/games/ws/")
		if err != nil {
			http.Error(w, "missing or invalid game id (/games/ws/{room_id})", http.StatusBadRequest)
			return
		}
		ident, err := identityFromRequest(r)
		if err != nil {
			http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
			return
		}
		if _, err := s.Games.State(r.Context(), roomID); errors.Is(err, store.ErrNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		} else if err != nil {
			http.Error(w, "could not read game", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error for game %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "client must speak the game subprotocol")
			return
		}
		middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		gameCh, stopGame, err := s.Games.Subscribe(ctx, roomID)
		if err != nil {
			s.Logger.WithError(err).Warn("game subscribe failed")
			c.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer stopGame()
		go pushSnapshots(ctx, c, "game_snapshot", gameCh, s.Logger)

		readErr := s.readGameMessages(ctx, c, roomID, ident)
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

func (s *Server) readGameMessages(ctx context.Context, c *websocket.Conn, roomID uuid.UUID, ident auth.Identity) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			if isExpectedClose(err) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, "invalid JSON", s.Logger)
			continue
		}

		switch msg.Type {
		case "roll":
			if _, err := s.Games.Roll(ctx, roomID, ident.UserID); err != nil {
				s.replyGameError(ctx, c, err)
			}
		case "hold":
			if err := s.Games.ToggleHold(ctx, roomID, ident.UserID, msg.Index); err != nil {
				s.replyGameError(ctx, c, err)
			}
		case "select":
			score, err := s.Games.SelectCategory(ctx, roomID, ident.UserID, models.Category(msg.Category))
			if err != nil {
				s.replyGameError(ctx, c, err)
				continue
			}
			sendWsMessage(ctx, c, map[string]interface{}{
				"type":     "score_selected",
				"category": msg.Category,
				"score":    score,
			}, s.Logger)
		case "preview":
			// Scorecard hints for the latest dice; reads nothing but the
			// snapshot and writes nothing.
			g, err := s.Games.State(ctx, roomID)
			if err != nil {
				s.replyGameError(ctx, c, err)
				continue
			}
			sendWsMessage(ctx, c, map[string]interface{}{
				"type":   "preview",
				"scores": scoring.PreviewAll(g.Dice),
			}, s.Logger)
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"}, s.Logger)
		default:
			sendWsError(ctx, c, "unknown action type: "+msg.Type, s.Logger)
		}
	}
}

// replyGameError maps engine errors onto client-facing messages.
func (s *Server) replyGameError(ctx context.Context, c *websocket.Conn, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		sendWsError(ctx, c, "game no longer exists", s.Logger)
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrNoRollsLeft),
		errors.Is(err, game.ErrTooEarlyToScore),
		errors.Is(err, game.ErrCategoryAlreadyScored),
		errors.Is(err, game.ErrSessionFinished),
		errors.Is(err, game.ErrUnknownCategory):
		sendWsError(ctx, c, err.Error(), s.Logger)
	default:
		// Transport failure: surface it generically, leave retry to the client.
		s.Logger.WithError(err).Warn("game operation failed")
		sendWsError(ctx, c, "operation failed, please retry", s.Logger)
	}
}

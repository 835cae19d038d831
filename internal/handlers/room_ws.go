package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/yachtlive/yacht/internal/auth"
	"github.com/yachtlive/yacht/internal/middleware"
	"github.com/yachtlive/yacht/internal/store"
)

// RoomMessage is one client action on the room channel.
type RoomMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`     // chat
	TargetID string `json:"targetId,omitempty"` // kick
}

// RoomWSHandler subscribes a client to one room document and its chat, and
// translates client actions into room lifecycle operations. The pushed
// snapshots are the only source of truth; the handler never echoes state of
// its own.
func (s *Server) RoomWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, err := pathID(r.URL.Path, "/rooms/ws/")
		if err != nil {
			http.Error(w, "missing or invalid room id (/rooms/ws/{room_id})", http.StatusBadRequest)
			return
		}
		ident, err := identityFromRequest(r)
		if err != nil {
			http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
			return
		}
		if _, err := s.Rooms.Get(r.Context(), roomID); errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		} else if err != nil {
			http.Error(w, "could not read room", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"room"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error for room %s: %v", roomID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		if c.Subprotocol() != "room" {
			c.Close(BadSubprotocolError, "client must speak the room subprotocol")
			return
		}
		middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		roomCh, stopRoom, err := s.Rooms.Subscribe(ctx, roomID)
		if err != nil {
			s.Logger.WithError(err).Warn("room subscribe failed")
			c.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer stopRoom()
		chatCh, stopChat, err := s.Chat.Subscribe(ctx, roomID)
		if err != nil {
			s.Logger.WithError(err).Warn("chat subscribe failed")
			c.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer stopChat()

		go pushSnapshots(ctx, c, "room_snapshot", roomCh, s.Logger)
		go pushSnapshots(ctx, c, "chat_message", chatCh, s.Logger)

		// Late joiners still need what was said before they subscribed.
		if history, err := s.Chat.History(ctx, roomID, 0); err == nil {
			sendWsMessage(ctx, c, map[string]interface{}{
				"type":     "chat_history",
				"messages": history,
			}, s.Logger)
		}

		if err := s.Rooms.SetConnected(ctx, roomID, ident.UserID, true); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.Logger.WithError(err).Debug("could not mark player connected")
		}

		readErr := s.readRoomMessages(ctx, c, roomID, ident)
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, readErr)

		// Use a fresh context: the request context is gone once we get here.
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cleanupCancel()
		if err := s.Rooms.SetConnected(cleanupCtx, roomID, ident.UserID, false); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.Logger.WithError(err).Debug("could not mark player disconnected")
		}
	}
}

func (s *Server) readRoomMessages(ctx context.Context, c *websocket.Conn, roomID uuid.UUID, ident auth.Identity) error {
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

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWsError(ctx, c, "invalid JSON", s.Logger)
			continue
		}

		var opErr error
		switch msg.Type {
		case "join":
			opErr = s.Rooms.Join(ctx, roomID, ident.UserID, ident.Nickname)
		case "leave":
			opErr = s.Rooms.Leave(ctx, roomID, ident.UserID)
		case "ready":
			opErr = s.Rooms.ToggleReady(ctx, roomID, ident.UserID)
		case "kick":
			target, err := uuid.Parse(msg.TargetID)
			if err != nil {
				sendWsError(ctx, c, "invalid targetId", s.Logger)
				continue
			}
			opErr = s.Rooms.Kick(ctx, roomID, ident.UserID, target)
		case "start":
			opErr = s.Rooms.Start(ctx, roomID, ident.UserID)
		case "chat":
			opErr = s.Chat.Send(ctx, roomID, ident.UserID, ident.Nickname, msg.Text)
		case "ping":
			sendWsMessage(ctx, c, map[string]string{"type": "pong"}, s.Logger)
			continue
		default:
			sendWsError(ctx, c, "unknown action type: "+msg.Type, s.Logger)
			continue
		}

		if opErr != nil {
			if errors.Is(opErr, store.ErrNotFound) {
				// Room was deleted under us (host left); subscribers already
				// got the deletion snapshot.
				sendWsError(ctx, c, "room no longer exists", s.Logger)
				continue
			}
			sendWsError(ctx, c, opErr.Error(), s.Logger)
		}
	}
}

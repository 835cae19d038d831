package handlers

import (
	"context"
	"net/http"

	"github.com/coder/websocket"

	"github.com/yachtlive/yacht/internal/middleware"
	"github.com/yachtlive/yacht/internal/room"
)

// LobbyWSHandler streams the room list to browsing clients. A snapshot is
// pushed whenever any room in the collection changes; clients re-fetch the
// filtered list themselves or use the initial payload sent here.
func (s *Server) LobbyWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := identityFromRequest(r); err != nil {
			http.Error(w, "missing or invalid auth_token", http.StatusUnauthorized)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"}, // Adjust in production.
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error for lobby: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")
		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}
		middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		ch, stop, err := s.Rooms.SubscribeList(ctx)
		if err != nil {
			s.Logger.WithError(err).Warn("lobby subscribe failed")
			c.Close(websocket.StatusInternalError, "subscribe failed")
			return
		}
		defer stop()
		go pushSnapshots(ctx, c, "room_changed", ch, s.Logger)

		if rooms, err := s.Rooms.ListRooms(ctx, room.ListOptions{}); err == nil {
			sendWsMessage(ctx, c, map[string]interface{}{
				"type":  "room_list",
				"rooms": rooms,
			}, s.Logger)
		}

		// Read loop exists only to notice the disconnect; the lobby channel
		// accepts no client actions beyond ping.
		var readErr error
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				if !isExpectedClose(err) {
					readErr = err
				}
				break
			}
			if string(data) == `{"type":"ping"}` {
				sendWsMessage(ctx, c, map[string]string{"type": "pong"}, s.Logger)
			}
		}
		middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/store"
)

// snapshotMessage is the push frame for document changes. Doc is null when
// the document was deleted (e.g. the host left and the room is gone).
type snapshotMessage struct {
	Type string          `json:"type"`
	Path string          `json:"path"`
	Rev  int64           `json:"rev"`
	Doc  json.RawMessage `json:"doc"`
}

// pushSnapshots forwards store snapshots to the client until the channel
// closes or the context ends. Snapshots arrive in store order; a lagging
// client may skip intermediate states but never sees them reordered.
func pushSnapshots(ctx context.Context, c *websocket.Conn, msgType string, ch <-chan store.Snapshot, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			msg := snapshotMessage{Type: msgType, Path: snap.Path, Rev: snap.Rev, Doc: snap.Data}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.WithError(err).Error("failed to marshal snapshot push")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				// The read loop notices the dead connection and cleans up.
				return
			}
		}
	}
}

// sendWsMessage marshals a message and writes it with a bounded timeout.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}, logger *logrus.Logger) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.WithError(err).Error("failed to marshal ws message")
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logger.WithError(err).Debug("ws write failed")
		}
	}
}

// sendWsError surfaces a validation failure to the acting client. Remote
// clients only ever observe the resulting state, never the error.
func sendWsError(ctx context.Context, c *websocket.Conn, errMsg string, logger *logrus.Logger) {
	sendWsMessage(ctx, c, map[string]interface{}{
		"type":    "error",
		"message": errMsg,
	}, logger)
}

// isExpectedClose reports whether a read error is a normal disconnect.
func isExpectedClose(err error) bool {
	status := websocket.CloseStatus(err)
	if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
		return true
	}
	return strings.Contains(err.Error(), "context canceled")
}

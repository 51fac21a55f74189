package handlers

import (
	"encoding/json"
	"time"

	"github.com/gmpdesk/gmp-dashboard/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSHandler streams snapshot update events to browser clients so the
// dashboard can repaint without polling.
type WSHandler struct {
	snapshots *services.SnapshotService
	logger    *logrus.Logger
}

func NewWSHandler(snapshots *services.SnapshotService) *WSHandler {
	return &WSHandler{
		snapshots: snapshots,
		logger:    logrus.StandardLogger(),
	}
}

// Upgrade gates the websocket routes behind a proper upgrade request.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream subscribes the connection to controller events and forwards
// them as JSON text frames until either side goes away.
func (h *WSHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		id, events := h.snapshots.Subscribe()
		defer h.snapshots.Unsubscribe(id)

		h.logger.WithField("subscriber", id).Debug("Dashboard client connected")

		// Read pump: we never expect client frames, but reading is what
		// notices a closed connection and keeps pong handling alive.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					h.logger.WithError(err).Warn("Dropping unencodable update event")
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}

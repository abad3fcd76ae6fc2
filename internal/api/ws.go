// Forkcast - Restaurant Discovery and Taste Matching
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/forkcast

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/forkcast/internal/logging"
	"github.com/tomtom215/forkcast/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin enforcement happens in the CORS layer; the upgrade itself
	// is token gated by the Authenticate middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is the envelope for stream frames.
type wsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StateStream upgrades to a WebSocket and streams session snapshots: one
// immediately on connect, then one per state change. The client side is
// read-only; inbound frames other than pongs are discarded.
func (h *Handler) StateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	snapshots, cancel := h.orch.Subscribe()
	logger := logging.Ctx(r.Context()).With().Str("component", "state_stream").Logger()

	go func() {
		defer func() {
			cancel()
			_ = conn.Close()
		}()

		conn.SetReadLimit(1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		// Reader goroutine: drains control frames and detects close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		if err := writeSnapshot(conn, h.orch.Snapshot()); err != nil {
			return
		}

		for {
			select {
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				if err := writeSnapshot(conn, snap); err != nil {
					logger.Debug().Err(err).Msg("stream write failed")
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()
}

func writeSnapshot(conn *websocket.Conn, snap session.Snapshot) error {
	payload, err := json.Marshal(wsMessage{Type: "state", Data: snap})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

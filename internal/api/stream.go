package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// handleStream pushes the full snapshot on connect and after every accepted
// state change. Bursts of changes coalesce into one message.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Stream upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	changes, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	// The reader only detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.opts.PingInterval)
	defer ping.Stop()

	send := func() bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.store.Snapshot()); err != nil {
			slog.Debug("Stream write failed", slog.Any("error", err))
			return false
		}
		return true
	}

	if !send() {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-changes:
			if !send() {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

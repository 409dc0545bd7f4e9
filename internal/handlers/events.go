package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"transcode-service/internal/pubsub"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventBuffer       = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service sits behind the message backend, not a browser; skip
	// origin checks.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamEvents upgrades the connection to a websocket and forwards
// transcode.finished events until the client disconnects. A slow client
// loses events rather than stalling the pipeline.
func (h *Handlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug("websocket close: %v", err)
		}
	}()

	events, cancel := h.bus.Subscribe(pubsub.TopicTranscodeFinished, eventBuffer)
	defer cancel()

	logger.Info("event stream client connected: %s", r.RemoteAddr)

	// Drain the read side so close frames and pings are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout)); err != nil {
				logger.Warn("event stream write deadline: %v", err)
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				logger.Info("event stream client gone: %v", err)
				return
			}
		case <-closed:
			logger.Info("event stream client disconnected: %s", r.RemoteAddr)
			return
		}
	}
}

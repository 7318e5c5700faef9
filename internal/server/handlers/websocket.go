// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"iwitness/internal/domain/criteria"
)

// EventSubscriber delivers the raw messages published on a subject
type EventSubscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func(), err error)
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Messages buffered per client before new ones are dropped
	SendBuffer int
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
		SendBuffer:     64,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already filtered by the CORS middleware
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sessionClient streams one session's events to one WebSocket peer
type sessionClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	sessionID string
	config    WebSocketConfig
	logger    *slog.Logger
}

// SessionWebSocketHandler streams a session's events. The first message is
// the session's current state; every later one is an event from the bus.
func SessionWebSocketHandler(sessions SessionService, subscriber EventSubscriber, config WebSocketConfig, logger *slog.Logger) http.HandlerFunc {
	if config == (WebSocketConfig{}) {
		config = DefaultWebSocketConfig()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")

		if _, err := sessions.Get(r.Context(), sessionID); err != nil {
			respondWithServiceError(w, "Failed to get session", err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.Any("error", err))
			return
		}

		client := &sessionClient{
			conn:      conn,
			send:      make(chan []byte, config.SendBuffer),
			done:      make(chan struct{}),
			sessionID: sessionID,
			config:    config,
			logger:    logger.With(slog.String("session_id", sessionID)),
		}

		// Events published from here on queue up behind the welcome
		unsubscribe, err := subscriber.Subscribe(sessions.SessionSubjects(sessionID), client.enqueue)
		if err != nil {
			client.logger.Error("websocket subscribe failed", slog.Any("error", err))
			client.close()
			return
		}

		snap, err := sessions.Get(r.Context(), sessionID)
		if err != nil {
			client.logger.Warn("session gone before websocket welcome", slog.Any("error", err))
			unsubscribe()
			client.close()
			return
		}
		welcome, err := json.Marshal(criteria.Event{
			Type:      criteria.EventUpdated,
			SessionID: sessionID,
			Snapshot:  &snap,
			Time:      time.Now().UTC(),
		})
		if err != nil {
			client.logger.Error("failed to encode websocket welcome", slog.Any("error", err))
			unsubscribe()
			client.close()
			return
		}

		client.logger.Info("websocket connected")

		go client.writePump(welcome)
		client.readPump()

		unsubscribe()
		client.logger.Info("websocket disconnected")
	}
}

// enqueue hands a message to the writer. A slow peer loses messages rather
// than blocking the bus.
func (c *sessionClient) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- data:
	default:
		c.logger.Warn("websocket send buffer full, dropping message")
	}
}

// readPump drains the peer until it goes away. Peers only send control frames.
func (c *sessionClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", slog.Any("error", err))
			}
			return
		}
	}
}

// writePump sends the welcome, then queued messages and keepalive pings
func (c *sessionClient) writePump(welcome []byte) {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		return
	}

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close is safe to call from both pumps
func (c *sessionClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

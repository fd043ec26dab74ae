// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Subscriber delivers raw messages published on a subject
type Subscriber interface {
	Subscribe(subject string, handler func(data []byte)) (unsubscribe func() error, err error)
}

// NATSSubscriber adapts a NATS connection to Subscriber
type NATSSubscriber struct {
	Conn *nats.Conn
}

// Subscribe subscribes to subject on the NATS connection
func (s NATSSubscriber) Subscribe(subject string, handler func(data []byte)) (func() error, error) {
	sub, err := s.Conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub.Unsubscribe, nil
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
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the CORS middleware
		return true
	},
}

// trendingClient relays badge updates to one browser
type trendingClient struct {
	conn        *websocket.Conn
	send        chan []byte
	config      WebSocketConfig
	unsubscribe func() error
	closeOnce   sync.Once
	done        chan struct{}
}

// TrendingWebSocketHandler streams trending score updates published on subject
func TrendingWebSocketHandler(sub Subscriber, subject string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("failed to upgrade to WebSocket")
			return
		}

		client := &trendingClient{
			conn:   conn,
			send:   make(chan []byte, 256),
			config: DefaultWebSocketConfig(),
			done:   make(chan struct{}),
		}

		unsubscribe, err := sub.Subscribe(subject, client.enqueue)
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("failed to subscribe to trending updates")
			conn.Close()
			return
		}
		client.unsubscribe = unsubscribe

		welcome, _ := json.Marshal(map[string]interface{}{
			"type":    "welcome",
			"subject": subject,
			"time":    time.Now().UTC(),
		})
		client.enqueue(welcome)

		go client.writePump()
		go client.readPump()
	}
}

// enqueue drops the message when the client is too slow to keep up
func (c *trendingClient) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Debug().Msg("dropping trending update for slow client")
	}
}

// readPump discards client input and keeps the read deadline fresh
func (c *trendingClient) readPump() {
	defer c.closeConnection()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

// writePump pumps messages from the subscription to the WebSocket connection
func (c *trendingClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

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

// closeConnection unsubscribes and closes the connection exactly once
func (c *trendingClient) closeConnection() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.unsubscribe != nil {
			if err := c.unsubscribe(); err != nil {
				log.Debug().Err(fmt.Errorf("unsubscribe: %w", err)).Msg("WebSocket cleanup")
			}
		}
		c.conn.Close()
	})
}

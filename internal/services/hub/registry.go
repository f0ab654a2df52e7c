package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/models"
)

// Conn is the subset of *websocket.Conn the registry needs, split out
// so delivery failures can be exercised in tests.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one registered real-time subscriber. Writes on the
// underlying connection are serialized through writeMu because the
// websocket protocol allows a single concurrent writer.
type Client struct {
	conn    Conn
	writeMu sync.Mutex
}

// NewClient wraps an accepted connection
func NewClient(conn Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) send(message []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Registry maintains the set of currently connected real-time clients
// and broadcasts each alert message to all of them, pruning dead
// connections as sends fail.
type Registry struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	writeTimeout time.Duration
}

// NewRegistry creates an empty fan-out registry
func NewRegistry(writeTimeout time.Duration) *Registry {
	return &Registry{
		clients:      make(map[*Client]struct{}),
		writeTimeout: writeTimeout,
	}
}

// Register adds a newly accepted connection to the set
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	total := len(r.clients)
	r.mu.Unlock()

	log.Info().Int("clients", total).Msg("Websocket client registered")
}

// Unregister removes a connection. Idempotent: removing an absent
// connection is a no-op.
func (r *Registry) Unregister(c *Client) {
	r.mu.Lock()
	_, present := r.clients[c]
	delete(r.clients, c)
	total := len(r.clients)
	r.mu.Unlock()

	if present {
		log.Info().Int("clients", total).Msg("Websocket client unregistered")
	}
}

// Broadcast sends message to every currently registered connection.
// A send failure on one connection unregisters and closes it without
// aborting delivery to the others; no error escapes.
func (r *Registry) Broadcast(message []byte) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(message, r.writeTimeout); err != nil {
			delivery := &models.DeliveryError{Err: err}
			log.Warn().Err(delivery).Msg("Dropping websocket client after failed send")
			r.Unregister(c)
			c.conn.Close()
		}
	}
}

// Count returns the number of registered clients
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Package livefeed streams race activity to spectators over WebSocket:
// confirmed contributions and preem status changes, one room per race.
// Redis pub/sub carries events across instances and from the worker.
package livefeed

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Event names published into race rooms.
const (
	EventContribution = "contribution"
	EventPreemUpdated = "preem_updated"
)

// Hub maintains race path -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// race doc path -> map[clientID]*Client
	races  map[string]map[string]*Client
	subs   map[string]func() // cancel Redis subscription per race
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// Publisher is the interface for publishing to Redis (for cross-instance broadcast).
type Publisher interface {
	PublishRaceEvent(racePath, event string, payload []byte) error
}

// Subscriber subscribes to race channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeRace(racePath string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		races:  make(map[string]map[string]*Client),
		subs:   make(map[string]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a client to a race room. Starts the Redis subscription for
// the race when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.races[c.RacePath] == nil {
		h.races[c.RacePath] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeRace(c.RacePath, func(event string, payload []byte) {
				h.BroadcastToRace(c.RacePath, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.RacePath] = cancel
			}
		}
	}
	h.races[c.RacePath][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined race feed", zap.String("client_id", c.ID), zap.String("race", c.RacePath))
}

// Unregister removes a client from a race room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.races[c.RacePath]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.races, c.RacePath)
			if cancel, ok := h.subs[c.RacePath]; ok {
				cancel()
				delete(h.subs, c.RacePath)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left race feed", zap.String("client_id", c.ID), zap.String("race", c.RacePath))
}

// BroadcastToRace sends a message to all clients in a race room (local only).
func (h *Hub) BroadcastToRace(racePath, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.races[racePath]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToRace publishes to Redis only, so the subscriber callback performs
// the broadcast once for all instances including this one.
func (h *Hub) PublishToRace(racePath, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.pub != nil {
		_ = h.pub.PublishRaceEvent(racePath, event, data)
		return
	}
	h.BroadcastToRace(racePath, event, payload)
}

// SpectatorCount returns the number of connected clients in a race room.
func (h *Hub) SpectatorCount(racePath string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.races[racePath])
}

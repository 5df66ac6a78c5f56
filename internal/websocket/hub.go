// Package websocket is the real-time comment relay.
// Clients join rooms keyed by post or writing id and receive comment_added
// events for comments created by other clients or through the REST API.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"go.uber.org/zap"
)

// ErrHubClosed is returned when registering against a hub that is shutting down.
var ErrHubClosed = errors.New("websocket hub closed")

// Hub tracks connected clients and their room memberships.
type Hub struct {
	// Room id -> members
	rooms map[string]map[*Client]struct{}

	clients map[*Client]struct{}

	mu sync.RWMutex

	// Outbound room deliveries, drained by Run
	publish chan *roomMessage

	stats *Stats

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	done    chan struct{}

	rateLimitConfig RateLimitConfig
}

type roomMessage struct {
	room    string
	sender  *Client
	message *Message
}

// Stats is a running tally kept alongside the Prometheus collectors.
type Stats struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	MessagesReceived  atomic.Int64
	MessagesSent      atomic.Int64
	MessagesDropped   atomic.Int64
}

// RateLimitConfig bounds inbound frames per client.
type RateLimitConfig struct {
	MessagesPerSecond float64
	Burst             int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessagesPerSecond: 10,
		Burst:             20,
	}
}

// NewHub creates a Hub. Call Run in a goroutine to start deliveries.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:           make(map[string]map[*Client]struct{}),
		clients:         make(map[*Client]struct{}),
		publish:         make(chan *roomMessage, 1024),
		stats:           &Stats{},
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// SetRateLimitConfig overrides the per-client limit for clients created afterwards.
func (h *Hub) SetRateLimitConfig(cfg RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = cfg
}

func (h *Hub) getRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}

// Run delivers published messages until Shutdown is called.
func (h *Hub) Run() {
	h.started.Store(true)
	defer close(h.done)

	logger.Log.Info("WebSocket relay hub starting")
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return
		case rm := <-h.publish:
			h.deliver(rm)
		}
	}
}

// Register adds a connected client to the hub.
func (h *Hub) Register(client *Client) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.stats.TotalConnections.Add(1)
	active := h.stats.ActiveConnections.Add(1)
	metrics.Get().RelayConnections.Inc()

	logger.Log.Debug("Relay client connected",
		zap.String("user", client.UserID),
		zap.Int64("active", active))
	return nil
}

// Unregister removes a client from the hub and every room it joined.
// It is safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room := range client.rooms {
		h.removeFromRoomLocked(room, client)
	}
	rooms := len(h.rooms)
	h.mu.Unlock()

	client.closeSend()

	active := h.stats.ActiveConnections.Add(-1)
	metrics.Get().RelayConnections.Dec()
	metrics.Get().RelayRooms.Set(float64(rooms))

	logger.Log.Debug("Relay client disconnected",
		zap.String("user", client.UserID),
		zap.Int64("active", active))
}

// Join adds the client to a room. Joining twice is a no-op.
func (h *Hub) Join(client *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
	client.rooms[room] = struct{}{}
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.Get().RelayRooms.Set(float64(rooms))
}

// Leave removes the client from a room. Leaving a room never joined is a no-op.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	h.removeFromRoomLocked(room, client)
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.Get().RelayRooms.Set(float64(rooms))
}

func (h *Hub) removeFromRoomLocked(room string, client *Client) {
	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Publish pushes a comment_added event for comment to every member of room.
// comment is JSON-encoded once. Publish never blocks; when the hub queue is
// full the event is dropped.
func (h *Hub) Publish(room string, comment interface{}) {
	raw, err := json.Marshal(comment)
	if err != nil {
		logger.WarnWithFields("Failed to encode relay comment", err, logger.WithRoom(room))
		return
	}
	h.enqueue(&roomMessage{room: room, message: NewCommentAdded(room, raw)})
}

// relay forwards a client's comment to the other members of room. It
// reports false, and forwards nothing, when the sender is not a member.
func (h *Hub) relay(sender *Client, room string, comment json.RawMessage) bool {
	h.mu.RLock()
	_, member := h.rooms[room][sender]
	h.mu.RUnlock()
	if !member {
		return false
	}
	h.enqueue(&roomMessage{room: room, sender: sender, message: NewCommentAdded(room, comment)})
	return true
}

func (h *Hub) enqueue(rm *roomMessage) {
	if h.ctx.Err() != nil {
		return
	}
	select {
	case h.publish <- rm:
	default:
		h.stats.MessagesDropped.Add(1)
		logger.Log.Warn("Relay queue full, dropping message", logger.WithRoom(rm.room))
	}
}

func (h *Hub) deliver(rm *roomMessage) {
	data, err := json.Marshal(rm.message)
	if err != nil {
		logger.WarnWithFields("Failed to marshal relay message", err, logger.WithRoom(rm.room))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[rm.room] {
		if client == rm.sender {
			continue
		}
		if client.enqueue(data) {
			h.stats.MessagesSent.Add(1)
			metrics.RecordRelayMessage(rm.message.Type, "out")
		} else {
			// Slow consumer: the event is lost for this client only
			h.stats.MessagesDropped.Add(1)
		}
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetStats returns a point-in-time snapshot of hub counters.
func (h *Hub) GetStats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:  h.stats.TotalConnections.Load(),
		ActiveConnections: h.stats.ActiveConnections.Load(),
		MessagesReceived:  h.stats.MessagesReceived.Load(),
		MessagesSent:      h.stats.MessagesSent.Load(),
		MessagesDropped:   h.stats.MessagesDropped.Load(),
		Rooms:             h.RoomCount(),
	}
}

type StatsSnapshot struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	MessagesReceived  int64 `json:"messages_received"`
	MessagesSent      int64 `json:"messages_sent"`
	MessagesDropped   int64 `json:"messages_dropped"`
	Rooms             int   `json:"rooms"`
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d rooms=%d messages=rx:%d/tx:%d dropped=%d",
		s.ActiveConnections, s.TotalConnections, s.Rooms,
		s.MessagesReceived, s.MessagesSent, s.MessagesDropped,
	)
}

// Shutdown stops the hub and closes every client's send channel.
func (h *Hub) Shutdown(ctx context.Context) error {
	logger.Log.Info("Initiating WebSocket hub shutdown")
	h.cancel()

	if !h.started.Load() {
		h.shutdown()
		return nil
	}

	select {
	case <-h.done:
		logger.Log.Info("WebSocket hub shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	notice, _ := json.Marshal(&Message{Type: MessageTypeSystem, Message: "server_shutdown"})
	for client := range clients {
		client.enqueue(notice)
		client.closeSend()
		h.stats.ActiveConnections.Add(-1)
		metrics.Get().RelayConnections.Dec()
	}
	metrics.Get().RelayRooms.Set(0)

	logger.Log.Info("Closed relay connections during shutdown", zap.Int("count", len(clients)))
}

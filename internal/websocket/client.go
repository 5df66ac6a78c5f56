package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size; comments are short
	maxMessageSize = 64 * 1024

	sendBufferSize = 256

	maxRoomIDLength = 64
)

// Client is one relay connection. UserID is empty for anonymous listeners.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	UserID      string
	ConnectedAt time.Time
	RemoteAddr  string

	send       chan []byte
	sendMu     sync.Mutex
	sendClosed bool

	// Guarded by hub.mu
	rooms map[string]struct{}

	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a Client bound to hub. conn may be nil in tests that
// only exercise room membership.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := hub.getRateLimitConfig()

	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		ConnectedAt: time.Now(),
		send:        make(chan []byte, sendBufferSize),
		rooms:       make(map[string]struct{}),
		limiter:     rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// enqueue offers data to the write pump without blocking.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

// Send queues a message for this client only.
func (c *Client) Send(message *Message) bool {
	data, err := json.Marshal(message)
	if err != nil {
		return false
	}
	return c.enqueue(data)
}

func (c *Client) sendError(code, message string) {
	c.Send(NewErrorMessage(code, message))
}

// ReadPump reads frames until the connection closes, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.cancel()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		readCtx, readCancel := context.WithTimeout(c.ctx, pongWait)
		_, data, err := c.conn.Read(readCtx)
		readCancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Debug("Relay client disconnected normally", zap.String("user", c.UserID))
			} else if c.ctx.Err() == nil {
				logger.Log.Debug("Relay read error", zap.String("user", c.UserID), zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendError("rate_limited", "Too many messages, please slow down")
			continue
		}

		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			c.sendError("invalid_json", "Failed to parse message")
			continue
		}

		c.hub.stats.MessagesReceived.Add(1)
		metrics.RecordRelayMessage(message.Type, "in")
		c.handleMessage(&message)
	}
}

// SendJSON writes v directly to the connection, bypassing the send queue.
// Only safe before WritePump starts.
func (c *Client) SendJSON(ctx context.Context, v interface{}) error {
	return wsjson.Write(ctx, c.conn, v)
}

// WritePump drains the send channel and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.Close(websocket.StatusGoingAway, "closing")
			return

		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "closing")
				return
			}

			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Log.Debug("Relay write error", zap.String("user", c.UserID), zap.Error(err))
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				logger.Log.Debug("Relay ping failed", zap.String("user", c.UserID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) handleMessage(message *Message) {
	room := strings.TrimSpace(message.PostID)

	switch message.Type {
	case MessageTypePing:
		c.Send(NewMessage(MessageTypePong, ""))
		return
	case MessageTypeJoinPost, MessageTypeLeavePost, MessageTypeNewComment:
		if room == "" || len(room) > maxRoomIDLength {
			c.sendError("invalid_room", "postId is required")
			return
		}
	default:
		c.sendError("unknown_type", "Unknown message type: "+message.Type)
		return
	}

	switch message.Type {
	case MessageTypeJoinPost:
		c.hub.Join(c, room)
		c.Send(NewMessage(MessageTypeJoined, room))
	case MessageTypeLeavePost:
		c.hub.Leave(c, room)
		c.Send(NewMessage(MessageTypeLeft, room))
	case MessageTypeNewComment:
		if len(message.Comment) == 0 || string(message.Comment) == "null" {
			c.sendError("invalid_comment", "comment is required")
			return
		}
		if !c.hub.relay(c, room, message.Comment) {
			c.sendError("not_in_room", "Join the room before sending comments")
		}
	}
}

// Close ends the connection; the pumps unwind and unregister the client.
func (c *Client) Close() {
	c.cancel()
}

package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/auth"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
)

// TokenValidator is the slice of the auth service the handshake needs.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Handler upgrades HTTP requests to relay connections.
type Handler struct {
	hub            *Hub
	tokens         TokenValidator
	originPatterns []string
}

// NewHandler creates a relay handler. originPatterns follows
// websocket.AcceptOptions; a "*" entry disables origin checks.
func NewHandler(hub *Hub, tokens TokenValidator, originPatterns ...string) *Handler {
	return &Handler{
		hub:            hub,
		tokens:         tokens,
		originPatterns: originPatterns,
	}
}

// HandleWebSocket serves GET /ws. A token (query ?token= or Bearer header)
// is optional; anonymous clients can listen and relay but carry no user id.
// An invalid token is rejected before the upgrade.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		util.RespondUnauthorized(c, "Invalid or expired token")
		return
	}

	opts := &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	}
	for _, p := range h.originPatterns {
		if p == "*" {
			opts.InsecureSkipVerify = true
			break
		}
	}
	if !opts.InsecureSkipVerify {
		opts.OriginPatterns = h.originPatterns
	}

	// gin's writer refuses to hijack once the 101 header is out; accept on the
	// underlying connection writer.
	conn, err := websocket.Accept(unwrapWriter(c.Writer), c.Request, opts)
	if err != nil {
		logger.WarnWithFields("WebSocket upgrade failed", err, logger.WithIP(c.ClientIP()))
		return
	}

	client := NewClient(h.hub, conn, userID)
	client.RemoteAddr = c.ClientIP()

	if err := h.hub.Register(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), writeWait)
	welcome := NewMessage(MessageTypeSystem, "")
	welcome.Message = "connected"
	err = client.SendJSON(ctx, welcome)
	cancel()
	if err != nil {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusInternalError, "handshake failed")
		return
	}

	go client.WritePump()
	client.ReadPump()
}

func unwrapWriter(w gin.ResponseWriter) http.ResponseWriter {
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return w
}

func (h *Handler) authenticate(c *gin.Context) (string, bool) {
	token := c.Query("token")
	if header := c.GetHeader("Authorization"); token == "" && strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" || h.tokens == nil {
		return "", true
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

// StatsHandler reports hub counters. Mounted under /health/ws.
func (h *Handler) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"relay":      h.hub.GetStats(),
		"checked_at": time.Now().UTC(),
	})
}

package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/auth"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, "a")
	b := NewClient(hub, nil, "b")
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))

	hub.Join(a, "post-1")
	hub.Join(a, "post-1")
	hub.Join(b, "post-1")
	hub.Join(b, "post-2")
	assert.Equal(t, 2, hub.RoomSize("post-1"))
	assert.Equal(t, 2, hub.RoomCount())

	hub.Leave(b, "post-2")
	assert.Equal(t, 1, hub.RoomCount())

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.RoomSize("post-1"))
	assert.Equal(t, int64(1), hub.GetStats().ActiveConnections)
}

func TestHubDeliverSkipsSenderAndNonMembers(t *testing.T) {
	hub := NewHub()
	sender := NewClient(hub, nil, "sender")
	member := NewClient(hub, nil, "member")
	outsider := NewClient(hub, nil, "outsider")
	for _, c := range []*Client{sender, member, outsider} {
		require.NoError(t, hub.Register(c))
	}
	hub.Join(sender, "w1")
	hub.Join(member, "w1")

	hub.deliver(&roomMessage{
		room:    "w1",
		sender:  sender,
		message: NewCommentAdded("w1", json.RawMessage(`{"text":"hi"}`)),
	})

	assert.Len(t, sender.send, 0)
	assert.Len(t, outsider.send, 0)
	require.Len(t, member.send, 1)

	var got Message
	require.NoError(t, json.Unmarshal(<-member.send, &got))
	assert.Equal(t, MessageTypeCommentAdded, got.Type)
	assert.Equal(t, "w1", got.PostID)
	assert.JSONEq(t, `{"text":"hi"}`, string(got.Comment))
}

func TestHubDropsForFullSendBuffer(t *testing.T) {
	hub := NewHub()
	slow := NewClient(hub, nil, "slow")
	require.NoError(t, hub.Register(slow))
	hub.Join(slow, "p")

	for i := 0; i < sendBufferSize+5; i++ {
		hub.deliver(&roomMessage{room: "p", message: NewCommentAdded("p", json.RawMessage(`{}`))})
	}

	assert.Len(t, slow.send, sendBufferSize)
	assert.Equal(t, int64(5), hub.GetStats().MessagesDropped)
}

func TestClientRateLimit(t *testing.T) {
	hub := NewHub()
	hub.SetRateLimitConfig(RateLimitConfig{MessagesPerSecond: 1, Burst: 3})
	c := NewClient(hub, nil, "")

	for i := 0; i < 3; i++ {
		assert.True(t, c.limiter.Allow(), "message %d should be allowed", i+1)
	}
	assert.False(t, c.limiter.Allow())
}

func TestEnqueueAfterCloseIsSafe(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "")
	c.closeSend()
	c.closeSend()
	assert.False(t, c.enqueue([]byte("x")))
}

func TestShutdownRejectsNewClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	c := NewClient(hub, nil, "")
	require.NoError(t, hub.Register(c))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	assert.ErrorIs(t, hub.Register(NewClient(hub, nil, "")), ErrHubClosed)
	_, open := <-c.send
	for open {
		_, open = <-c.send
	}
}

// End-to-end over a real connection

type relayServer struct {
	hub *Hub
	srv *httptest.Server
}

func newRelayServer(t *testing.T) *relayServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()

	router := gin.New()
	router.GET("/ws", NewHandler(hub, auth.NewMockAuthService(), "*").HandleWebSocket)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hub.Shutdown(ctx)
		srv.Close()
	})
	return &relayServer{hub: hub, srv: srv}
}

func (rs *relayServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(rs.srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	welcome := readMessage(t, conn)
	require.Equal(t, MessageTypeSystem, welcome.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, v))
}

func join(t *testing.T, conn *websocket.Conn, room string) {
	t.Helper()
	writeMessage(t, conn, map[string]string{"type": MessageTypeJoinPost, "postId": room})
	ack := readMessage(t, conn)
	require.Equal(t, MessageTypeJoined, ack.Type)
	require.Equal(t, room, ack.PostID)
}

func TestRelayCommentToOtherMembers(t *testing.T) {
	rs := newRelayServer(t)
	alice := rs.dial(t, "?token=valid:alice")
	bob := rs.dial(t, "")

	join(t, alice, "post-42")
	join(t, bob, "post-42")

	writeMessage(t, alice, map[string]interface{}{
		"type":    MessageTypeNewComment,
		"postId":  "post-42",
		"comment": map[string]string{"text": "lovely brushwork"},
	})

	got := readMessage(t, bob)
	assert.Equal(t, MessageTypeCommentAdded, got.Type)
	assert.Equal(t, "post-42", got.PostID)
	assert.JSONEq(t, `{"text":"lovely brushwork"}`, string(got.Comment))
}

func TestCommentFromNonMemberIsRejected(t *testing.T) {
	rs := newRelayServer(t)
	member := rs.dial(t, "")
	stranger := rs.dial(t, "?token=valid:stranger")

	join(t, member, "post-9")

	writeMessage(t, stranger, map[string]interface{}{
		"type":    MessageTypeNewComment,
		"postId":  "post-9",
		"comment": map[string]string{"text": "drive-by"},
	})

	got := readMessage(t, stranger)
	assert.Equal(t, MessageTypeError, got.Type)
	assert.Equal(t, "not_in_room", got.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var none Message
	assert.Error(t, wsjson.Read(ctx, member, &none))
}

func TestPublishReachesRoomAndSkipsLeftClient(t *testing.T) {
	rs := newRelayServer(t)
	stays := rs.dial(t, "")
	leaves := rs.dial(t, "")

	join(t, stays, "w-7")
	join(t, leaves, "w-7")

	writeMessage(t, leaves, map[string]string{"type": MessageTypeLeavePost, "postId": "w-7"})
	require.Equal(t, MessageTypeLeft, readMessage(t, leaves).Type)

	rs.hub.Publish("w-7", map[string]string{"id": "c1", "text": "first"})

	got := readMessage(t, stays)
	assert.Equal(t, MessageTypeCommentAdded, got.Type)
	assert.JSONEq(t, `{"id":"c1","text":"first"}`, string(got.Comment))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	var none Message
	assert.Error(t, wsjson.Read(ctx, leaves, &none))
}

func TestInvalidFramesKeepConnectionOpen(t *testing.T) {
	rs := newRelayServer(t)
	conn := rs.dial(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	assert.Equal(t, "invalid_json", readMessage(t, conn).Code)

	writeMessage(t, conn, map[string]string{"type": MessageTypeJoinPost})
	assert.Equal(t, "invalid_room", readMessage(t, conn).Code)

	writeMessage(t, conn, map[string]string{"type": "dance"})
	assert.Equal(t, "unknown_type", readMessage(t, conn).Code)

	join(t, conn, "still-open")
}

func TestInvalidTokenRejectedBeforeUpgrade(t *testing.T) {
	rs := newRelayServer(t)

	resp, err := http.Get(rs.srv.URL + "/ws?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

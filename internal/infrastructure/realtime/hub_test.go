package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu         sync.Mutex
	frames     []Frame
	failWrites bool

	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 8), closed: make(chan struct{})}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v.(Frame))
	return nil
}

func (c *fakeConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case p := <-c.incoming:
		return websocket.TextMessage, p, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(int64) {}
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) Close() error { c.once.Do(func() { close(c.closed) }); return nil }

func (c *fakeConn) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) lastEvent() string {
	frames := c.Frames()
	if len(frames) == 0 {
		return ""
	}
	return frames[len(frames)-1].Event
}

func attach(h *Hub, userID string) (*Session, *fakeConn) {
	conn := newFakeConn()
	s := &Session{hub: h, conn: conn, userID: userID}
	h.register(s)
	return s, conn
}

func TestHub_PublishToUserRoom(t *testing.T) {
	h := NewHub(Config{})
	_, alice := attach(h, "alice")
	_, bob := attach(h, "bob")

	require.NoError(t, h.Publish(context.Background(), UserChannel("alice"), EventNotification, map[string]string{"title": "hi"}))

	require.Len(t, alice.Frames(), 1)
	assert.Equal(t, EventNotification, alice.Frames()[0].Event)
	assert.Equal(t, "user_alice", alice.Frames()[0].Channel)
	assert.Empty(t, bob.Frames())
}

func TestHub_PublishWithoutListeners(t *testing.T) {
	h := NewHub(Config{})
	assert.NoError(t, h.Publish(context.Background(), NovelChannel("n1"), EventNewChapter, nil))
}

func TestHub_DropsFailedConnection(t *testing.T) {
	h := NewHub(Config{})
	alice, broken := attach(h, "alice")
	carol, healthy := attach(h, "carol")
	attach(h, "bob")
	require.True(t, h.join(alice, NovelChannel("n1")))
	require.True(t, h.join(carol, NovelChannel("n1")))

	broken.mu.Lock()
	broken.failWrites = true
	broken.mu.Unlock()

	require.NoError(t, h.Publish(context.Background(), NovelChannel("n1"), EventNewChapter, map[string]int{"number": 2}))

	assert.True(t, broken.isClosed())
	assert.Equal(t, 2, h.Connections())
	assert.Equal(t, 1, h.Members(NovelChannel("n1")))
	assert.Equal(t, 0, h.Members(UserChannel("alice")))
	require.Len(t, healthy.Frames(), 1)
	assert.Equal(t, EventNewChapter, healthy.Frames()[0].Event)
}

func TestHub_Close(t *testing.T) {
	h := NewHub(Config{})
	_, a := attach(h, "a")
	_, b := attach(h, "b")

	h.Close()
	h.Close()

	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Equal(t, 0, h.Connections())
}

func TestHub_ServeJoinLeave(t *testing.T) {
	h := NewHub(Config{})
	conn := newFakeConn()
	done := make(chan struct{})
	go func() {
		h.Serve(context.Background(), conn, "alice")
		close(done)
	}()

	require.Eventually(t, func() bool { return conn.lastEvent() == EventConnected }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, h.Members(UserChannel("alice")))

	steps := []struct {
		frame string
		want  string
	}{
		{`{"action":"join","channel":"novel_n1"}`, EventJoined},
		{`{"action":"join","channel":"user_bob"}`, EventError},
		{`{"action":"leave","channel":"user_alice"}`, EventError},
		{`{"action":"dance"}`, EventError},
		{`not json`, EventError},
	}
	for _, step := range steps {
		before := len(conn.Frames())
		conn.incoming <- []byte(step.frame)
		require.Eventually(t, func() bool { return len(conn.Frames()) > before }, time.Second, 5*time.Millisecond, step.frame)
		assert.Equal(t, step.want, conn.lastEvent(), step.frame)
	}
	assert.Equal(t, 1, h.Members(NovelChannel("n1")))
	assert.Equal(t, 0, h.Members(UserChannel("bob")))

	require.NoError(t, h.Publish(context.Background(), NovelChannel("n1"), EventNewChapter, map[string]int{"number": 3}))
	assert.Equal(t, EventNewChapter, conn.lastEvent())

	before := len(conn.Frames())
	conn.incoming <- []byte(`{"action":"leave","channel":"novel_n1"}`)
	require.Eventually(t, func() bool { return len(conn.Frames()) > before }, time.Second, 5*time.Millisecond)
	assert.Equal(t, EventLeft, conn.lastEvent())
	assert.Equal(t, 0, h.Members(NovelChannel("n1")))

	_ = conn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after close")
	}
	assert.Equal(t, 0, h.Connections())
}

func TestCanJoin(t *testing.T) {
	assert.True(t, canJoin("u1", "novel_abc"))
	assert.True(t, canJoin("u1", "user_u1"))
	assert.False(t, canJoin("u1", "user_u2"))
	assert.False(t, canJoin("u1", "novel_"))
	assert.False(t, canJoin("u1", "lobby"))
}

func TestChannelKind(t *testing.T) {
	assert.Equal(t, "user", channelKind(UserChannel("x")))
	assert.Equal(t, "novel", channelKind(NovelChannel("x")))
	assert.Equal(t, "unknown", channelKind("other"))
}

func TestRedisRelay_Deliver(t *testing.T) {
	h := NewHub(Config{})
	_, conn := attach(h, "alice")
	relay := NewRedisRelay(nil, "", h)

	payload, err := encodeEnvelope(UserChannel("alice"), EventNotification, map[string]string{"id": "n1"})
	require.NoError(t, err)
	relay.deliver(context.Background(), payload)
	relay.deliver(context.Background(), "{broken")

	frames := conn.Frames()
	require.Len(t, frames, 1)
	raw, err := json.Marshal(frames[0].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"n1"}`, string(raw))
}

func TestServe_OverWebSocket(t *testing.T) {
	h := NewHub(Config{})
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Serve(r.Context(), conn, "alice")
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	var frame Frame
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, EventConnected, frame.Event)

	require.NoError(t, client.WriteJSON(ClientFrame{Action: "join", Channel: "novel_n9"}))
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, EventJoined, frame.Event)

	require.NoError(t, h.Publish(context.Background(), NovelChannel("n9"), EventNewChapter, map[string]int{"number": 1}))
	require.NoError(t, client.ReadJSON(&frame))
	assert.Equal(t, EventNewChapter, frame.Event)
	assert.Equal(t, "novel_n9", frame.Channel)
}

func TestNewUpgrader_CheckOrigin(t *testing.T) {
	up := NewUpgrader([]string{"https://novels.example"})
	req := httptest.NewRequest(http.MethodGet, "/v1/ws", nil)

	req.Header.Set("Origin", "https://novels.example")
	assert.True(t, up.CheckOrigin(req))
	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, up.CheckOrigin(req))
}

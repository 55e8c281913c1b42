package infra

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []string
	got      chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{got: make(chan struct{}, 16)}
}

func (h *recordingHandler) OnMessage(ctx context.Context, msg []byte) {
	h.mu.Lock()
	h.messages = append(h.messages, string(msg))
	h.mu.Unlock()
	h.got <- struct{}{}
}

func (h *recordingHandler) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func newStreamServer(t *testing.T, handler func(*websocket.Conn, *http.Request)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn, r)
	}))
}

func wsURL(url string) string {
	return strings.Replace(url, "http://", "ws://", 1)
}

func waitMessage(t *testing.T, h *recordingHandler) {
	t.Helper()
	select {
	case <-h.got:
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestStreamClient_ReceivesMessages(t *testing.T) {
	var ua atomic.Value
	server := newStreamServer(t, func(conn *websocket.Conn, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"version":1}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"version":2}`))
		conn.ReadMessage() // hold until the client goes away
	})
	defer server.Close()

	h := newRecordingHandler()
	client := NewStreamClient(wsURL(server.URL), UserAgent("test"), h)
	client.Start(context.Background())
	defer client.Stop()

	waitMessage(t, h)
	waitMessage(t, h)
	assert.Equal(t, []string{`{"version":1}`, `{"version":2}`}, h.all())
	assert.Equal(t, "rollup-book/test", ua.Load())
}

func TestStreamClient_Reconnects(t *testing.T) {
	var connects int32
	server := newStreamServer(t, func(conn *websocket.Conn, r *http.Request) {
		n := atomic.AddInt32(&connects, 1)
		conn.WriteMessage(websocket.TextMessage, []byte{byte('0' + n)})
		if n > 1 {
			conn.ReadMessage()
		}
		// First connection closes right away.
	})
	defer server.Close()

	h := newRecordingHandler()
	client := NewStreamClient(wsURL(server.URL), UserAgent(""), h)
	client.Backoff = Backoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}
	client.Start(context.Background())
	defer client.Stop()

	waitMessage(t, h)
	waitMessage(t, h)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&connects), int32(2))
	assert.Equal(t, []string{"1", "2"}, h.all())
}

func TestStreamClient_PingExtendsDeadline(t *testing.T) {
	var connects int32
	server := newStreamServer(t, func(conn *websocket.Conn, r *http.Request) {
		atomic.AddInt32(&connects, 1)
		for i := 0; i < 4; i++ {
			time.Sleep(60 * time.Millisecond)
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.TextMessage, []byte("late"))
		conn.ReadMessage()
	})
	defer server.Close()

	h := newRecordingHandler()
	client := NewStreamClient(wsURL(server.URL), UserAgent(""), h)
	client.ReadTimeout = 150 * time.Millisecond
	client.Backoff = Backoff{Base: time.Second, Max: time.Second}
	client.Start(context.Background())
	defer client.Stop()

	waitMessage(t, h)
	assert.Equal(t, []string{"late"}, h.all())
	assert.Equal(t, int32(1), atomic.LoadInt32(&connects))
}

func TestStreamClient_StopWithoutServer(t *testing.T) {
	h := newRecordingHandler()
	client := NewStreamClient("ws://127.0.0.1:1/stream", UserAgent(""), h)
	client.Backoff = Backoff{Base: 10 * time.Millisecond, Max: 10 * time.Millisecond}
	client.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		client.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	require.Empty(t, h.all())
}

package infra

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamHandler receives every message read from the stream.
type StreamHandler interface {
	OnMessage(ctx context.Context, msg []byte)
}

// StreamHandlerFunc adapts a function to StreamHandler.
type StreamHandlerFunc func(ctx context.Context, msg []byte)

func (f StreamHandlerFunc) OnMessage(ctx context.Context, msg []byte) { f(ctx, msg) }

// StreamClient follows a websocket feed, reconnecting with backoff until
// stopped. The server keeps the connection alive with pings; each ping
// extends the read deadline.
type StreamClient struct {
	url       string
	userAgent string
	handler   StreamHandler

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ReadTimeout time.Duration
	Backoff     Backoff
}

// NewStreamClient creates a client for url. It does not connect until Start.
func NewStreamClient(url, userAgent string, handler StreamHandler) *StreamClient {
	return &StreamClient{
		url:         url,
		userAgent:   userAgent,
		handler:     handler,
		ReadTimeout: 60 * time.Second,
		Backoff:     DefaultBackoff,
	}
}

// Start initiates the connection loop.
func (c *StreamClient) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.runLoop(ctx)
}

// Stop terminates the client and waits for the loop to exit.
func (c *StreamClient) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.close()
	c.wg.Wait()
}

func (c *StreamClient) runLoop(ctx context.Context) {
	defer c.wg.Done()
	retry := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := c.connect(ctx)
		if err != nil {
			slog.Warn("Stream connection failed", slog.String("url", c.url), slog.Any("error", err), slog.Int("retry", retry))
			delay := c.Backoff.Delay(retry)
			retry++

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retry = 0
		c.process(ctx, conn)
	}
}

func (c *StreamClient) connect(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", c.userAgent)

	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, err
	}

	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	// Stop may have raced the dial.
	if ctx.Err() != nil {
		c.close()
		return nil, ctx.Err()
	}

	slog.Info("Stream connected", slog.String("url", c.url))
	return conn, nil
}

func (c *StreamClient) process(ctx context.Context, conn *websocket.Conn) {
	for {
		conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Stream read error", slog.String("url", c.url), slog.Any("error", err))
			}
			c.close()
			return
		}

		c.handler.OnMessage(ctx, msg)
	}
}

func (c *StreamClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Package pubsub maintains the push-channel connection to the companion
// service and dispatches incoming events to registered handlers. Events are
// handled one at a time on the read loop's goroutine, so handlers never see
// two redemptions interleaved.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Handler processes a single event's payload.
type Handler func(ctx context.Context, data json.RawMessage)

// envelope is the wire frame: an event name plus its payload. Unknown extra
// fields are ignored.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is a reconnecting push-channel client with a handler table. Room
// membership survives reconnects: the join frame is re-sent after every
// successful dial.
type Client struct {
	url           string
	maxReconnects int
	baseBackoff   time.Duration

	handlers map[string]Handler

	mu   sync.Mutex
	room string
	conn *websocket.Conn
}

func NewClient(url string, maxReconnects int, baseBackoff time.Duration) *Client {
	return &Client{
		url:           url,
		maxReconnects: maxReconnects,
		baseBackoff:   baseBackoff,
		handlers:      map[string]Handler{},
	}
}

// On registers the handler for an event name, replacing any previous one.
// Must be called before Run.
func (c *Client) On(event string, h Handler) {
	c.handlers[event] = h
}

// Join enters a room on the server. If the connection is up the join frame
// is sent immediately; either way the room is remembered and re-joined after
// every reconnect.
func (c *Client) Join(room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = room
	if c.conn != nil {
		return c.sendJoinLocked()
	}
	return nil
}

func (c *Client) sendJoinLocked() error {
	frame, err := json.Marshal(envelope{Event: "join", Data: json.RawMessage(fmt.Sprintf("%q", c.room))})
	if err != nil {
		return fmt.Errorf("pubsub: encode join frame: %w", err)
	}
	if err = c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("pubsub: send join frame: %w", err)
	}
	log.Info().Str("room", c.room).Msg("joined push channel room")
	return nil
}

// Run connects and reads events until ctx is cancelled. Reconnection is
// bounded: after maxReconnects consecutive failed attempts Run returns an
// error instead of retrying forever.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			attempts++
			if attempts > c.maxReconnects {
				return fmt.Errorf("pubsub: connection attempts exhausted after %d tries: %w", attempts, err)
			}
			backoff := jitter(c.baseBackoff)
			log.Error().Err(err).Dur("retry_in", backoff).Int("attempt", attempts).Msg("push channel connect failed")
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			continue
		}
		attempts = 0
		log.Info().Str("url", c.url).Msg("connection to push channel established")

		c.mu.Lock()
		c.conn = conn
		if c.room != "" {
			if err = c.sendJoinLocked(); err != nil {
				log.Error().Err(err).Msg("rejoin after reconnect failed")
			}
		}
		c.mu.Unlock()

		err = c.readLoop(ctx, conn)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = conn.Close()

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			log.Info().Msg("disconnected from push channel")
			return nil
		}
		log.Error().Err(err).Msg("push channel connection lost")
	}
}

// readLoop reads frames and dispatches them sequentially until the
// connection breaks or ctx is cancelled.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(ctx, frame)
	}
}

// dispatch decodes a frame and invokes the registered handler, if any.
func (c *Client) dispatch(ctx context.Context, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		log.Warn().Err(err).Msg("discarding malformed push channel frame")
		return
	}
	h, ok := c.handlers[env.Event]
	if !ok {
		log.Debug().Str("event", env.Event).Msg("no handler for push channel event")
		return
	}
	h(ctx, env.Data)
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64() // 0.5x-1.5x
	return time.Duration(float64(base) * factor)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

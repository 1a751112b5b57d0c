package chatclient

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/AvineetYadav/CHAT-APP/internal/transport/ws"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// RealtimeState represents the connection state.
type RealtimeState string

const (
	StateDisconnected RealtimeState = "disconnected"
	StateConnecting   RealtimeState = "connecting"
	StateConnected    RealtimeState = "connected"
	StateReconnecting RealtimeState = "reconnecting"
)

var ErrNotConnected = errors.New("realtime connection is not established")

// RealtimeConfig configures the realtime connection.
type RealtimeConfig struct {
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	// OnEvent, if set, runs after each event is applied to the store.
	OnEvent func(*ws.Event)
}

func (c *RealtimeConfig) defaults() {
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 10
	}
	if c.ReconnectBaseDelay == 0 {
		c.ReconnectBaseDelay = 1 * time.Second
	}
	if c.ReconnectMaxDelay == 0 {
		c.ReconnectMaxDelay = 30 * time.Second
	}
}

// Realtime is the push side of the client: it feeds server events into the
// sync store and carries join/typing signals upstream. Delivery is
// best-effort; anything missed while disconnected is recovered by refetching
// over REST.
type Realtime struct {
	client *Client
	store  *Store
	cfg    RealtimeConfig

	mu     sync.Mutex
	conn   *websocket.Conn
	state  RealtimeState
	joined map[uuid.UUID]struct{}
	timers map[uuid.UUID]*time.Timer
}

// Realtime creates the realtime companion for this client.
func (c *Client) Realtime(store *Store, cfg RealtimeConfig) *Realtime {
	cfg.defaults()
	return &Realtime{
		client: c,
		store:  store,
		cfg:    cfg,
		state:  StateDisconnected,
		joined: make(map[uuid.UUID]struct{}),
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

func (r *Realtime) State() RealtimeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run connects and processes events until ctx is cancelled or the reconnect
// budget is spent.
func (r *Realtime) Run(ctx context.Context) error {
	attempts := 0
	for {
		if attempts == 0 {
			r.setState(StateConnecting)
		} else {
			r.setState(StateReconnecting)
		}

		conn, err := r.dial(ctx)
		if err != nil {
			attempts++
			if attempts > r.cfg.MaxReconnectAttempts {
				r.setState(StateDisconnected)
				return err
			}
			if err := sleep(ctx, r.backoff(attempts)); err != nil {
				r.setState(StateDisconnected)
				return err
			}
			continue
		}

		r.setConn(conn)
		r.setState(StateConnected)
		attempts = 0

		// Re-announce room subscriptions; the server forgot them.
		r.rejoin(ctx)

		readErr := r.readLoop(ctx, conn)
		r.setConn(nil)
		conn.Close(websocket.StatusNormalClosure, "")

		if ctx.Err() != nil {
			r.setState(StateDisconnected)
			return ctx.Err()
		}

		attempts++
		if attempts > r.cfg.MaxReconnectAttempts {
			r.setState(StateDisconnected)
			return readErr
		}
		if err := sleep(ctx, r.backoff(attempts)); err != nil {
			r.setState(StateDisconnected)
			return err
		}
	}
}

// JoinConversation subscribes to a conversation's events. The subscription
// survives reconnects.
func (r *Realtime) JoinConversation(ctx context.Context, conversationID uuid.UUID) error {
	r.mu.Lock()
	r.joined[conversationID] = struct{}{}
	r.mu.Unlock()
	return r.send(ctx, ws.EventJoinConversation, ws.JoinPayload{ConversationID: conversationID})
}

// Typing signals a keystroke. If no further keystroke follows within
// TypingTimeout a stopTyping is emitted locally, so the indicator can't hang
// on the other side.
func (r *Realtime) Typing(ctx context.Context, conversationID uuid.UUID) error {
	r.mu.Lock()
	if t, ok := r.timers[conversationID]; ok {
		t.Stop()
	}
	r.timers[conversationID] = time.AfterFunc(TypingTimeout, func() {
		r.StopTyping(context.Background(), conversationID)
	})
	r.mu.Unlock()

	return r.send(ctx, ws.EventTyping, ws.TypingPayload{
		ConversationID: conversationID,
		UserID:         r.client.UserID(),
	})
}

func (r *Realtime) StopTyping(ctx context.Context, conversationID uuid.UUID) error {
	r.mu.Lock()
	if t, ok := r.timers[conversationID]; ok {
		t.Stop()
		delete(r.timers, conversationID)
	}
	r.mu.Unlock()

	return r.send(ctx, ws.EventStopTyping, ws.TypingPayload{
		ConversationID: conversationID,
		UserID:         r.client.UserID(),
	})
}

func (r *Realtime) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL := strings.Replace(r.client.baseURL, "http", "ws", 1) + "/ws?token=" + r.client.Token()
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	return conn, err
}

func (r *Realtime) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var event ws.Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return err
		}
		if err := r.store.Apply(&event); err != nil {
			continue
		}
		if r.cfg.OnEvent != nil {
			r.cfg.OnEvent(&event)
		}
	}
}

func (r *Realtime) rejoin(ctx context.Context) {
	r.mu.Lock()
	ids := make([]uuid.UUID, 0, len(r.joined))
	for id := range r.joined {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		_ = r.send(ctx, ws.EventJoinConversation, ws.JoinPayload{ConversationID: id})
	}
}

func (r *Realtime) send(ctx context.Context, eventType string, payload any) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	event, err := ws.NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, event)
}

func (r *Realtime) setConn(conn *websocket.Conn) {
	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()
}

func (r *Realtime) setState(state RealtimeState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// backoff returns an exponential delay with jitter, capped at the max.
func (r *Realtime) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(r.cfg.ReconnectBaseDelay) * math.Pow(2, float64(attempt-1)))
	if delay > r.cfg.ReconnectMaxDelay {
		delay = r.cfg.ReconnectMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	return delay + jitter
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

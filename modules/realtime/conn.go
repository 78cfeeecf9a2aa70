package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// writeWait bounds how long a single frame write may block.
const writeWait = 10 * time.Second

// Family tags a connection with the room family it was accepted for. The
// tag is fixed at creation; board and task rooms never share membership
// even when their numeric keys collide.
type Family string

// Room families.
const (
	FamilyBoard Family = "board"
	FamilyTask  Family = "task"
)

// Socket is the transport surface the realtime core needs from a websocket
// connection. *websocket.Conn satisfies it; tests substitute a recording
// fake.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Conn is one bidirectional session. It starts unauthenticated and unjoined;
// a successful join fixes its user and room key for the rest of its life.
type Conn struct {
	id     string
	family Family
	sock   Socket

	mu      sync.Mutex
	alive   bool
	closed  bool
	joined  bool
	userID  int64
	roomKey string
}

// NewConn wraps a freshly accepted socket. The connection starts live,
// unauthenticated and unjoined.
func NewConn(family Family, sock Socket) *Conn {
	return &Conn{
		id:     uuid.New().String(),
		family: family,
		sock:   sock,
		alive:  true,
	}
}

// ID returns the connection's opaque identity.
func (c *Conn) ID() string { return c.id }

// Family returns the room family assigned at creation.
func (c *Conn) Family() Family { return c.family }

// Joined reports whether the connection has completed a join.
func (c *Conn) Joined() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.joined
}

// UserID returns the authenticated user, valid only after a join.
func (c *Conn) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// RoomKey returns the joined room key, valid only after a join.
func (c *Conn) RoomKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomKey
}

// setMembership records the join result. It is write-once: a second call
// reports failure and changes nothing.
func (c *Conn) setMembership(roomKey string, userID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.joined {
		return false
	}
	c.joined = true
	c.roomKey = roomKey
	c.userID = userID
	return true
}

// MarkAlive sets the liveness flag; called on every inbound frame, pong and
// peer ping.
func (c *Conn) MarkAlive() {
	c.mu.Lock()
	c.alive = true
	c.mu.Unlock()
}

// expire clears the liveness flag and reports whether the connection was
// alive before the call. The monitor calls this once per sweep.
func (c *Conn) expire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.alive
	c.alive = false
	return was
}

// Send marshals an envelope and writes it as one text frame. Errors mark the
// connection closed so later broadcasts skip it.
func (c *Conn) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.SendRaw(data)
}

// SendRaw writes pre-serialized bytes as one text frame. Closed connections
// are skipped silently.
func (c *Conn) SendRaw(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
		c.closed = true
		return err
	}
	return nil
}

// Ping emits a liveness probe.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	return c.sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close performs a graceful close with the given status code.
func (c *Conn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.sock.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.sock.Close()
}

// Terminate drops the underlying transport without a close handshake. Used
// for connections that failed a liveness probe.
func (c *Conn) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.sock.Close()
}

// Closed reports whether the transport is no longer usable.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

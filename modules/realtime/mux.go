package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/example/kanban-realtime-demo/domain/user"
)

// TokenVerifier authenticates a bearer token presented with a join command.
// It must reject missing, revoked, malformed and expired tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (user.Identity, error)
}

// Handler processes one authenticated command. The payload is the raw
// envelope payload; handlers decode and validate it themselves.
type Handler func(ctx context.Context, c *Conn, payload json.RawMessage)

// Vocabulary defines one room family's dialect: its join message type, how
// the room key is named in join payloads and replies, and the table of
// authenticated commands. Board and task rooms share all multiplexer
// machinery and differ only in their vocabulary.
type Vocabulary struct {
	Family   Family
	JoinType string
	// KeyField names the room key in join payloads and auth replies
	// ("boardId" or "taskId").
	KeyField string
	Commands map[string]Handler
}

type joinPayload struct {
	BoardID json.Number `json:"boardId"`
	TaskID  json.Number `json:"taskId"`
	Token   string      `json:"token"`
}

// roomKey picks the key matching the vocabulary's field name.
func (v Vocabulary) roomKey(p joinPayload) string {
	if v.KeyField == "taskId" {
		return p.TaskID.String()
	}
	return p.BoardID.String()
}

// Mux runs one room family: it tracks every accepted connection for the
// liveness monitor, gates all commands behind the join handshake, and routes
// authenticated commands through the vocabulary table.
type Mux struct {
	vocab    Vocabulary
	rooms    *RoomManager
	verifier TokenVerifier

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewMux creates a multiplexer for one room family.
func NewMux(vocab Vocabulary, rooms *RoomManager, verifier TokenVerifier) *Mux {
	return &Mux{
		vocab:    vocab,
		rooms:    rooms,
		verifier: verifier,
		conns:    make(map[*Conn]struct{}),
	}
}

// Rooms returns the family's membership index.
func (m *Mux) Rooms() *RoomManager { return m.rooms }

// Accept registers a freshly upgraded socket with the multiplexer and
// returns its connection. The connection starts unauthenticated.
func (m *Mux) Accept(sock Socket) *Conn {
	c := NewConn(m.vocab.Family, sock)
	m.mu.Lock()
	m.conns[c] = struct{}{}
	m.mu.Unlock()
	log.Printf("[realtime] %s connection accepted: %s", m.vocab.Family, c.ID())
	return c
}

// Connections returns a snapshot of every tracked connection, live or not.
func (m *Mux) Connections() []*Conn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Conn, 0, len(m.conns))
	for c := range m.conns {
		out = append(out, c)
	}
	return out
}

// HandleClose is the single cleanup path for every exit: graceful close,
// read error, explicit leave-then-close, and liveness eviction all converge
// here. It is idempotent.
func (m *Mux) HandleClose(c *Conn) {
	m.rooms.Leave(c)
	m.mu.Lock()
	_, tracked := m.conns[c]
	delete(m.conns, c)
	m.mu.Unlock()
	if tracked {
		log.Printf("[realtime] %s connection closed: %s", m.vocab.Family, c.ID())
	}
}

// HandleFrame processes one inbound frame. Malformed frames are logged and
// discarded; they never take down the connection or the process.
func (m *Mux) HandleFrame(ctx context.Context, c *Conn, raw []byte) {
	c.MarkAlive()

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
		log.Printf("[realtime] invalid %s frame from %s: %v", m.vocab.Family, c.ID(), err)
		return
	}

	if frame.Type == m.vocab.JoinType {
		m.handleJoin(ctx, c, frame.Payload)
		return
	}

	if !c.Joined() {
		c.Close(closePolicyViolation, "Unauthorized")
		m.HandleClose(c)
		return
	}

	handler, ok := m.vocab.Commands[frame.Type]
	if !ok {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Unknown socket event"})
		return
	}
	handler(ctx, c, frame.Payload)
}

// handleJoin authenticates the connection and installs its membership. Any
// validation failure replies AUTH_FAILED and closes; the membership index is
// never touched on failure.
func (m *Mux) handleJoin(ctx context.Context, c *Conn, payload json.RawMessage) {
	if c.Joined() {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Already joined a room"})
		return
	}

	var join joinPayload
	if err := json.Unmarshal(payload, &join); err != nil || m.vocab.roomKey(join) == "" {
		m.rejectJoin(c, "join payload missing room key")
		return
	}

	ident, err := m.verifier.Verify(ctx, join.Token)
	if err != nil {
		m.rejectJoin(c, err.Error())
		return
	}

	roomKey := m.vocab.roomKey(join)
	m.rooms.Join(c, roomKey, ident.UserID)

	_ = c.Send(Event{Type: TypeAuthSuccess, Payload: map[string]any{
		m.vocab.KeyField: roomKey,
		"userId":         ident.UserID,
	}})
	log.Printf("[realtime] user %d joined %s room %s", ident.UserID, m.vocab.Family, roomKey)
}

func (m *Mux) rejectJoin(c *Conn, cause string) {
	log.Printf("[realtime] %s auth failed for %s: %s", m.vocab.Family, c.ID(), cause)
	_ = c.Send(ErrorEvent{Type: TypeAuthFailed, Message: "Invalid or expired token"})
	c.Close(websocket.CloseNormalClosure, "")
	m.HandleClose(c)
}

// Serve runs the read loop for one upgraded socket until it closes. Pong and
// peer-ping handlers restore the liveness flag between monitor sweeps.
func (m *Mux) Serve(ws *websocket.Conn) {
	c := m.Accept(ws)
	defer m.HandleClose(c)

	ws.SetPongHandler(func(string) error {
		c.MarkAlive()
		return nil
	})
	ws.SetPingHandler(func(string) error {
		c.MarkAlive()
		return ws.WriteControl(websocket.PongMessage, nil, time.Now().Add(writeWait))
	})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[realtime] %s connection %s closed by peer", m.vocab.Family, c.ID())
			} else {
				log.Printf("[realtime] %s read error on %s: %v", m.vocab.Family, c.ID(), err)
			}
			return
		}
		m.HandleFrame(context.Background(), c, raw)
		if c.Closed() {
			return
		}
	}
}

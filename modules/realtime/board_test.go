package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/kanban-realtime-demo/domain/ticket"
)

// fakeTickets is an in-memory tickets port.
type fakeTickets struct {
	nextID  int64
	tickets map[int64]*ticket.Ticket
	fail    bool
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{nextID: 1, tickets: make(map[int64]*ticket.Ticket)}
}

func (f *fakeTickets) Create(_ context.Context, title string, statusID, userID int64) (*ticket.Ticket, error) {
	if f.fail {
		return nil, errors.New("storage down")
	}
	tk := &ticket.Ticket{ID: f.nextID, Title: title, StatusID: statusID, CreatedBy: userID, UpdatedBy: userID}
	f.tickets[tk.ID] = tk
	f.nextID++
	return tk, nil
}

func (f *fakeTickets) Update(_ context.Context, id int64, title string, statusID, userID int64) (*ticket.Ticket, error) {
	tk, ok := f.tickets[id]
	if !ok || f.fail {
		return nil, errors.New("not found")
	}
	tk.Title, tk.StatusID, tk.UpdatedBy = title, statusID, userID
	return tk, nil
}

func (f *fakeTickets) Delete(_ context.Context, id int64) error {
	if _, ok := f.tickets[id]; !ok || f.fail {
		return errors.New("not found")
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTickets) Move(_ context.Context, id, statusID, userID int64) (*ticket.MoveResult, error) {
	tk, ok := f.tickets[id]
	if !ok || f.fail {
		return nil, errors.New("not found")
	}
	old := tk.StatusID
	tk.StatusID = statusID
	tk.UpdatedBy = userID
	return &ticket.MoveResult{
		ID:          tk.ID,
		StatusID:    statusID,
		OldStatusID: old,
		OldStatus:   ticket.StatusName(old),
		NewStatus:   ticket.StatusName(statusID),
		UpdatedBy:   userID,
	}, nil
}

func (f *fakeTickets) ListAll(_ context.Context) ([]ticket.Ticket, error) {
	if f.fail {
		return nil, errors.New("storage down")
	}
	out := make([]ticket.Ticket, 0, len(f.tickets))
	for _, tk := range f.tickets {
		out = append(out, *tk)
	}
	return out, nil
}

func (f *fakeTickets) ListByUser(_ context.Context, userID int64) ([]ticket.Ticket, error) {
	if f.fail {
		return nil, errors.New("storage down")
	}
	out := make([]ticket.Ticket, 0)
	for _, tk := range f.tickets {
		if tk.CreatedBy == userID {
			out = append(out, *tk)
		}
	}
	return out, nil
}

// boardFixture joins two users to board "7".
func boardFixture(t *testing.T) (*Mux, *fakeTickets, *Conn, *fakeSocket, *Conn, *fakeSocket) {
	t.Helper()
	tickets := newFakeTickets()
	m := NewBoardMux(testVerifier(), tickets)

	sockA := &fakeSocket{}
	a := m.Accept(sockA)
	m.HandleFrame(context.Background(), a, joinFrame(t, "7", "token-1"))

	sockB := &fakeSocket{}
	b := m.Accept(sockB)
	m.HandleFrame(context.Background(), b, joinFrame(t, "7", "token-2"))

	if !a.Joined() || !b.Joined() {
		t.Fatal("fixture connections failed to join")
	}
	return m, tickets, a, sockA, b, sockB
}

func lastEvent(t *testing.T, sock *fakeSocket) (string, json.RawMessage) {
	t.Helper()
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(sock.lastFrame(t), &env); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	return env.Type, env.Payload
}

func TestBoardCreateCardBroadcasts(t *testing.T) {
	m, tickets, a, sockA, _, sockB := boardFixture(t)

	m.HandleFrame(context.Background(), a, frame(t, TypeCreateCard, map[string]any{
		"title": "Fix login", "status_id": 1,
	}))

	typA, payloadA := lastEvent(t, sockA)
	typB, _ := lastEvent(t, sockB)
	if typA != TypeCardCreated || typB != TypeCardCreated {
		t.Fatalf("broadcast types = %s/%s, want CARD_CREATED for both", typA, typB)
	}

	var created ticket.Ticket
	if err := json.Unmarshal(payloadA, &created); err != nil {
		t.Fatalf("unmarshal card: %v", err)
	}
	if created.ID == 0 || created.Title != "Fix login" || created.CreatedBy != 1 {
		t.Errorf("created card = %+v, want persisted card with server id and creator 1", created)
	}
	if _, ok := tickets.tickets[created.ID]; !ok {
		t.Error("card must be persisted before the broadcast")
	}
	// Identical serialized bytes for every member.
	if string(sockA.lastFrame(t)) != string(sockB.lastFrame(t)) {
		t.Error("room members received different broadcast bytes")
	}
}

func TestBoardCreateCardValidation(t *testing.T) {
	m, tickets, a, sockA, _, sockB := boardFixture(t)
	countB := sockB.frameCount()

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing title", map[string]any{"status_id": 1}},
		{"missing status", map[string]any{"title": "x"}},
		{"empty payload", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.HandleFrame(context.Background(), a, frame(t, TypeCreateCard, tt.payload))
			typ, _ := lastEvent(t, sockA)
			if typ != TypeError {
				t.Errorf("reply type = %s, want ERROR", typ)
			}
		})
	}
	if len(tickets.tickets) != 0 {
		t.Error("invalid payloads must not persist anything")
	}
	if sockB.frameCount() != countB {
		t.Error("validation errors must go to the sender only")
	}
}

func TestBoardCreateCardPersistenceFailure(t *testing.T) {
	m, tickets, a, sockA, _, sockB := boardFixture(t)
	tickets.fail = true
	countB := sockB.frameCount()

	m.HandleFrame(context.Background(), a, frame(t, TypeCreateCard, map[string]any{
		"title": "Fix login", "status_id": 1,
	}))

	typ, _ := lastEvent(t, sockA)
	if typ != TypeError {
		t.Errorf("reply type = %s, want ERROR on persistence failure", typ)
	}
	if sockB.frameCount() != countB {
		t.Error("failed mutations must not be broadcast")
	}
}

func TestBoardUpdateCardBroadcasts(t *testing.T) {
	m, tickets, a, sockA, _, sockB := boardFixture(t)
	seed, _ := tickets.Create(context.Background(), "Old title", 1, 1)

	m.HandleFrame(context.Background(), a, frame(t, TypeUpdateCard, map[string]any{
		"id": seed.ID, "title": "New title", "status_id": 2,
	}))

	typ, payload := lastEvent(t, sockB)
	if typ != TypeCardUpdated {
		t.Fatalf("broadcast type = %s, want CARD_UPDATED", typ)
	}
	var updated ticket.Ticket
	if err := json.Unmarshal(payload, &updated); err != nil {
		t.Fatalf("unmarshal card: %v", err)
	}
	if updated.Title != "New title" || updated.StatusID != 2 {
		t.Errorf("updated card = %+v", updated)
	}
	_ = sockA
}

func TestBoardUpdateCardTreatsStatusZeroAsPresent(t *testing.T) {
	m, tickets, a, sockA, _, _ := boardFixture(t)
	_, _ = tickets.Create(context.Background(), "x", 1, 1)

	// status_id present but null-ish payload: missing field is the error, not
	// a zero value for id/title.
	m.HandleFrame(context.Background(), a, frame(t, TypeUpdateCard, map[string]any{
		"id": 1, "title": "y",
	}))

	typ, _ := lastEvent(t, sockA)
	if typ != TypeError {
		t.Errorf("reply type = %s, want ERROR when status_id absent", typ)
	}
}

func TestBoardDeleteCardBroadcasts(t *testing.T) {
	m, tickets, a, _, _, sockB := boardFixture(t)
	seed, _ := tickets.Create(context.Background(), "x", 1, 1)

	m.HandleFrame(context.Background(), a, frame(t, TypeDeleteCard, map[string]any{"id": seed.ID}))

	typ, payload := lastEvent(t, sockB)
	if typ != TypeCardDeleted {
		t.Fatalf("broadcast type = %s, want CARD_DELETED", typ)
	}
	var body struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if body.ID != seed.ID {
		t.Errorf("deleted id = %d, want %d", body.ID, seed.ID)
	}
	if _, ok := tickets.tickets[seed.ID]; ok {
		t.Error("card must be removed from storage")
	}
}

func TestBoardMoveCardScenario(t *testing.T) {
	m, tickets, a, sockA, b, sockB := boardFixture(t)
	var seed *ticket.Ticket
	for i := 0; i < 3; i++ {
		seed, _ = tickets.Create(context.Background(), "card", 1, 1)
	}

	m.HandleFrame(context.Background(), a, frame(t, TypeMoveCard, map[string]any{
		"id": seed.ID, "status_id": 5,
	}))

	// Both members observe the move, including the originator.
	for _, sock := range []*fakeSocket{sockA, sockB} {
		typ, payload := lastEvent(t, sock)
		if typ != TypeCardMoved {
			t.Fatalf("broadcast type = %s, want CARD_MOVED", typ)
		}
		var moved ticket.MoveResult
		if err := json.Unmarshal(payload, &moved); err != nil {
			t.Fatalf("unmarshal move result: %v", err)
		}
		if moved.StatusID != 5 || moved.OldStatusID != 1 {
			t.Errorf("move result = %+v, want 1 -> 5", moved)
		}
		if moved.NewStatus != "Reopen" || moved.OldStatus != "Bug Found" {
			t.Errorf("status names = %s -> %s, want Bug Found -> Reopen", moved.OldStatus, moved.NewStatus)
		}
	}

	// B leaves; the board's user list updates.
	m.HandleClose(b)
	m.HandleFrame(context.Background(), a, frame(t, TypeGetUsers, nil))
	typ, payload := lastEvent(t, sockA)
	if typ != TypeBoardUsers {
		t.Fatalf("reply type = %s, want BOARD_USERS", typ)
	}
	var users RoomUsers
	if err := json.Unmarshal(payload, &users); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	if users.RoomKey != "7" || len(users.Users) != 1 || users.Users[0] != 1 {
		t.Errorf("board users = %+v, want board 7 with [1]", users)
	}
}

func TestBoardPingPong(t *testing.T) {
	m, _, a, sockA, _, sockB := boardFixture(t)
	countB := sockB.frameCount()

	m.HandleFrame(context.Background(), a, frame(t, TypePing, nil))

	typ, _ := lastEvent(t, sockA)
	if typ != TypePong {
		t.Errorf("reply type = %s, want PONG", typ)
	}
	if sockB.frameCount() != countB {
		t.Error("PONG must go to the sender only")
	}
}

func TestBoardLeaveConfirmsAndKeepsConnectionOpen(t *testing.T) {
	m, _, a, sockA, _, _ := boardFixture(t)

	m.HandleFrame(context.Background(), a, frame(t, TypeLeaveBoard, nil))

	typ, _ := lastEvent(t, sockA)
	if typ != TypeLeftBoard {
		t.Errorf("reply type = %s, want LEFT_BOARD", typ)
	}
	if a.Closed() {
		t.Error("explicit leave must not close the connection")
	}
	if users := m.Rooms().ListUsers("7"); len(users) != 1 || users[0] != 2 {
		t.Errorf("ListUsers(7) = %v, want [2]", users)
	}
}

func TestBoardGetAllUsersSnapshots(t *testing.T) {
	m, _, a, sockA, _, _ := boardFixture(t)

	sockC := &fakeSocket{}
	c := m.Accept(sockC)
	m.HandleFrame(context.Background(), c, joinFrame(t, "9", "token-2"))

	m.HandleFrame(context.Background(), a, frame(t, TypeGetAllUsers, nil))

	typ, payload := lastEvent(t, sockA)
	if typ != TypeAllBoardUsers {
		t.Fatalf("reply type = %s, want ALL_BOARD_USERS", typ)
	}
	var snap []RoomUsers
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap) != 2 || snap[0].RoomKey != "7" || snap[1].RoomKey != "9" {
		t.Errorf("snapshot = %+v, want boards 7 and 9", snap)
	}
}

func TestBoardTicketListsReplyToSenderOnly(t *testing.T) {
	m, tickets, a, sockA, _, sockB := boardFixture(t)
	_, _ = tickets.Create(context.Background(), "mine", 1, 1)
	_, _ = tickets.Create(context.Background(), "theirs", 1, 2)
	countB := sockB.frameCount()

	m.HandleFrame(context.Background(), a, frame(t, TypeGetAllTickets, nil))
	typ, payload := lastEvent(t, sockA)
	if typ != TypeAllTickets {
		t.Fatalf("reply type = %s, want ALL_TICKETS", typ)
	}
	var all []ticket.Ticket
	if err := json.Unmarshal(payload, &all); err != nil {
		t.Fatalf("unmarshal tickets: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ALL_TICKETS has %d entries, want 2", len(all))
	}

	m.HandleFrame(context.Background(), a, frame(t, TypeGetUserTickets, nil))
	typ, payload = lastEvent(t, sockA)
	if typ != TypeUserTickets {
		t.Fatalf("reply type = %s, want USER_TICKETS", typ)
	}
	var mine []ticket.Ticket
	if err := json.Unmarshal(payload, &mine); err != nil {
		t.Fatalf("unmarshal tickets: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "mine" {
		t.Errorf("USER_TICKETS = %+v, want only user 1's card", mine)
	}

	if sockB.frameCount() != countB {
		t.Error("ticket lists must go to the requester only")
	}
}

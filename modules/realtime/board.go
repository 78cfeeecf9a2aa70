package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/kanban-realtime-demo/modules/tickets"
)

// boardDispatcher implements the board-room command table against the
// tickets collaborator.
type boardDispatcher struct {
	rooms   *RoomManager
	tickets tickets.Port
}

// NewBoardMux builds the board-room multiplexer: join via JOIN_BOARD, card
// commands persisted through the tickets port, results broadcast to the
// whole board.
func NewBoardMux(verifier TokenVerifier, ticketPort tickets.Port) *Mux {
	rooms := NewRoomManager(FamilyBoard)
	d := &boardDispatcher{rooms: rooms, tickets: ticketPort}

	vocab := Vocabulary{
		Family:   FamilyBoard,
		JoinType: TypeJoinBoard,
		KeyField: "boardId",
		Commands: map[string]Handler{
			TypePing:           d.ping,
			TypeLeaveBoard:     d.leave,
			TypeGetUsers:       d.getUsers,
			TypeGetAllUsers:    d.getAllUsers,
			TypeCreateCard:     d.createCard,
			TypeUpdateCard:     d.updateCard,
			TypeDeleteCard:     d.deleteCard,
			TypeMoveCard:       d.moveCard,
			TypeGetAllTickets:  d.getAllTickets,
			TypeGetUserTickets: d.getUserTickets,
		},
	}
	return NewMux(vocab, rooms, verifier)
}

// ping answers the application-level keep-alive, independent of the
// monitor's control-frame probes.
func (d *boardDispatcher) ping(_ context.Context, c *Conn, _ json.RawMessage) {
	_ = c.Send(Event{Type: TypePong})
}

// leave runs the same membership cleanup as a close, then confirms. The
// connection itself stays open.
func (d *boardDispatcher) leave(_ context.Context, c *Conn, _ json.RawMessage) {
	d.rooms.Leave(c)
	_ = c.Send(Event{Type: TypeLeftBoard})
}

func (d *boardDispatcher) getUsers(_ context.Context, c *Conn, _ json.RawMessage) {
	_ = c.Send(Event{Type: TypeBoardUsers, Payload: RoomUsers{
		RoomKey: c.RoomKey(),
		Users:   d.rooms.ListUsers(c.RoomKey()),
	}})
}

func (d *boardDispatcher) getAllUsers(_ context.Context, c *Conn, _ json.RawMessage) {
	_ = c.Send(Event{Type: TypeAllBoardUsers, Payload: d.rooms.Snapshot()})
}

type createCardPayload struct {
	Title    string `json:"title"`
	StatusID int64  `json:"status_id"`
}

func (d *boardDispatcher) createCard(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p createCardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Title == "" || p.StatusID == 0 {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Missing title or status"})
		return
	}
	card, err := d.tickets.Create(ctx, p.Title, p.StatusID, c.UserID())
	if err != nil {
		log.Printf("[realtime] create card failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to create card"})
		return
	}
	d.rooms.Broadcast(c.RoomKey(), TypeCardCreated, card)
}

type updateCardPayload struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	StatusID *int64 `json:"status_id"`
}

func (d *boardDispatcher) updateCard(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p updateCardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.ID == 0 || p.Title == "" || p.StatusID == nil {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Missing update data"})
		return
	}
	card, err := d.tickets.Update(ctx, p.ID, p.Title, *p.StatusID, c.UserID())
	if err != nil {
		log.Printf("[realtime] update card failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Update failed"})
		return
	}
	d.rooms.Broadcast(c.RoomKey(), TypeCardUpdated, card)
}

type deleteCardPayload struct {
	ID int64 `json:"id"`
}

func (d *boardDispatcher) deleteCard(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p deleteCardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.ID == 0 {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Missing card id"})
		return
	}
	if err := d.tickets.Delete(ctx, p.ID); err != nil {
		log.Printf("[realtime] delete card failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Delete failed"})
		return
	}
	d.rooms.Broadcast(c.RoomKey(), TypeCardDeleted, deleteCardPayload{ID: p.ID})
}

type moveCardPayload struct {
	ID       int64  `json:"id"`
	StatusID *int64 `json:"status_id"`
}

func (d *boardDispatcher) moveCard(ctx context.Context, c *Conn, payload json.RawMessage) {
	var p moveCardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.ID == 0 || p.StatusID == nil {
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Missing move data"})
		return
	}
	moved, err := d.tickets.Move(ctx, p.ID, *p.StatusID, c.UserID())
	if err != nil {
		log.Printf("[realtime] move card failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Move failed"})
		return
	}
	d.rooms.Broadcast(c.RoomKey(), TypeCardMoved, moved)
}

func (d *boardDispatcher) getAllTickets(ctx context.Context, c *Conn, _ json.RawMessage) {
	all, err := d.tickets.ListAll(ctx)
	if err != nil {
		log.Printf("[realtime] list tickets failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to fetch tickets"})
		return
	}
	_ = c.Send(Event{Type: TypeAllTickets, Payload: all})
}

func (d *boardDispatcher) getUserTickets(ctx context.Context, c *Conn, _ json.RawMessage) {
	mine, err := d.tickets.ListByUser(ctx, c.UserID())
	if err != nil {
		log.Printf("[realtime] list user tickets failed: %v", err)
		_ = c.Send(ErrorEvent{Type: TypeError, Message: "Failed to fetch tickets"})
		return
	}
	_ = c.Send(Event{Type: TypeUserTickets, Payload: mine})
}

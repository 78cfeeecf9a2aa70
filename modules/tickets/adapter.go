package tickets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/kanban-realtime-demo/domain/ticket"
)

// Service subjects exposed by this module.
const (
	ServiceCreate = "services.tickets.create"
	ServiceUpdate = "services.tickets.update"
	ServiceDelete = "services.tickets.delete"
	ServiceMove   = "services.tickets.move"
	ServiceList   = "services.tickets.list"
)

// Port defines the ticket operations the realtime dispatchers consume.
type Port interface {
	Create(ctx context.Context, title string, statusID, userID int64) (*ticket.Ticket, error)
	Update(ctx context.Context, id int64, title string, statusID, userID int64) (*ticket.Ticket, error)
	Delete(ctx context.Context, id int64) error
	Move(ctx context.Context, id, statusID, userID int64) (*ticket.MoveResult, error)
	ListAll(ctx context.Context) ([]ticket.Ticket, error)
	ListByUser(ctx context.Context, userID int64) ([]ticket.Ticket, error)
}

// Adapter implements Port over the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a tickets adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("tickets: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// Create persists a new ticket.
func (a *Adapter) Create(ctx context.Context, title string, statusID, userID int64) (*ticket.Ticket, error) {
	req := CreateRequest{Title: title, StatusID: statusID, UserID: userID}
	var resp ticket.Ticket
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreate, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return &resp, nil
}

// Update rewrites a ticket's title and status.
func (a *Adapter) Update(ctx context.Context, id int64, title string, statusID, userID int64) (*ticket.Ticket, error) {
	req := UpdateRequest{ID: id, Title: title, StatusID: statusID, UserID: userID}
	var resp ticket.Ticket
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceUpdate, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	return &resp, nil
}

// Delete removes a ticket.
func (a *Adapter) Delete(ctx context.Context, id int64) error {
	req := DeleteRequest{ID: id}
	var resp DeleteResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceDelete, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// Move changes a ticket's status column.
func (a *Adapter) Move(ctx context.Context, id, statusID, userID int64) (*ticket.MoveResult, error) {
	req := MoveRequest{ID: id, StatusID: statusID, UserID: userID}
	var resp ticket.MoveResult
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceMove, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to move ticket: %w", err)
	}
	return &resp, nil
}

// ListAll retrieves every ticket.
func (a *Adapter) ListAll(ctx context.Context) ([]ticket.Ticket, error) {
	return a.list(ctx, 0)
}

// ListByUser retrieves the tickets created by one user.
func (a *Adapter) ListByUser(ctx context.Context, userID int64) ([]ticket.Ticket, error) {
	return a.list(ctx, userID)
}

func (a *Adapter) list(ctx context.Context, userID int64) ([]ticket.Ticket, error) {
	req := ListRequest{UserID: userID}
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceList, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return resp.Tickets, nil
}

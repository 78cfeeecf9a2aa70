package tickets

import (
	"github.com/example/kanban-realtime-demo/domain/ticket"
)

// CreateRequest is the services.tickets.create request.
type CreateRequest struct {
	Title    string `json:"title"`
	StatusID int64  `json:"status_id"`
	UserID   int64  `json:"user_id"`
}

// UpdateRequest is the services.tickets.update request.
type UpdateRequest struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	StatusID int64  `json:"status_id"`
	UserID   int64  `json:"user_id"`
}

// DeleteRequest is the services.tickets.delete request.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// DeleteResponse is the services.tickets.delete response.
type DeleteResponse struct {
	ID int64 `json:"id"`
}

// MoveRequest is the services.tickets.move request.
type MoveRequest struct {
	ID       int64 `json:"id"`
	StatusID int64 `json:"status_id"`
	UserID   int64 `json:"user_id"`
}

// ListRequest is the services.tickets.list request. A zero UserID lists all
// tickets.
type ListRequest struct {
	UserID int64 `json:"user_id,omitempty"`
}

// ListResponse is the services.tickets.list response.
type ListResponse struct {
	Tickets []ticket.Ticket `json:"tickets"`
}

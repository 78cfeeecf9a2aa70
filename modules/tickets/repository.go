package tickets

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/kanban-realtime-demo/domain/ticket"
	"github.com/example/kanban-realtime-demo/domain/user"
)

// ErrNotFound is returned when a ticket is not found.
var ErrNotFound = errors.New("ticket not found")

// Repository provides access to ticket storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a ticket repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new ticket with the creator recorded on both audit columns.
func (r *Repository) Create(title string, statusID, userID int64) (*ticket.Ticket, error) {
	t := &ticket.Ticket{
		Title:     title,
		StatusID:  statusID,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if err := r.db.Create(t).Error; err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return t, nil
}

// Update rewrites a ticket's title and status.
func (r *Repository) Update(id int64, title string, statusID, userID int64) (*ticket.Ticket, error) {
	result := r.db.Model(&ticket.Ticket{}).Where("id = ?", id).Updates(map[string]any{
		"title":      title,
		"status_id":  statusID,
		"updated_by": userID,
	})
	if err := result.Error; err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var t ticket.Ticket
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload ticket: %w", err)
	}
	return &t, nil
}

// Delete removes a ticket.
func (r *Repository) Delete(id int64) error {
	result := r.db.Delete(&ticket.Ticket{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Move changes a ticket's status column and records a status_changed
// activity with readable old/new names, in one transaction.
func (r *Repository) Move(id, statusID, userID int64) (*ticket.MoveResult, error) {
	var result ticket.MoveResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var t ticket.Ticket
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load ticket: %w", err)
		}
		oldStatusID := t.StatusID

		var mover user.User
		moverName := "Unknown User"
		if err := tx.First(&mover, "id = ?", userID).Error; err == nil {
			moverName = mover.Name
		}

		if err := tx.Model(&ticket.Ticket{}).Where("id = ?", id).Updates(map[string]any{
			"status_id":  statusID,
			"updated_by": userID,
		}).Error; err != nil {
			return fmt.Errorf("failed to move ticket: %w", err)
		}

		activity := ticket.Activity{
			TicketID:     id,
			UserID:       userID,
			ActivityType: ticket.ActivityStatusChanged,
			OldValue:     ticket.StatusName(oldStatusID),
			NewValue:     ticket.StatusName(statusID),
		}
		if err := tx.Create(&activity).Error; err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		result = ticket.MoveResult{
			ID:            id,
			StatusID:      statusID,
			OldStatusID:   oldStatusID,
			OldStatus:     ticket.StatusName(oldStatusID),
			NewStatus:     ticket.StatusName(statusID),
			UpdatedBy:     userID,
			UpdatedByName: moverName,
			ActivityID:    activity.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindAll retrieves every ticket, oldest first.
func (r *Repository) FindAll() ([]ticket.Ticket, error) {
	var out []ticket.Ticket
	if err := r.db.Order("id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return out, nil
}

// FindByUser retrieves every ticket created by the given user.
func (r *Repository) FindByUser(userID int64) ([]ticket.Ticket, error) {
	var out []ticket.Ticket
	if err := r.db.Where("created_by = ?", userID).Order("id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list user tickets: %w", err)
	}
	return out, nil
}

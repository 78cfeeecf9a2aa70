package ticket

import (
	"time"

	"gorm.io/gorm"
)

// Ticket represents a card on the kanban board.
type Ticket struct {
	ID        int64     `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	StatusID  int64     `gorm:"not null" json:"status_id"`
	CreatedBy int64     `gorm:"not null" json:"created_by"`
	UpdatedBy int64     `gorm:"not null" json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Ticket model.
func (Ticket) TableName() string {
	return "tickets"
}

// Activity is one row of a ticket's audit trail. Comment activities keep a
// back-reference to the comment row; status changes store the readable
// old/new status names.
type Activity struct {
	ID           int64          `gorm:"primarykey" json:"id"`
	TicketID     int64          `gorm:"not null;index" json:"ticket_id"`
	UserID       int64          `gorm:"not null" json:"user_id"`
	CommentID    *int64         `json:"comment_id,omitempty"`
	ActivityType string         `gorm:"size:64;not null" json:"activity_type"`
	OldValue     string         `gorm:"size:2048" json:"old_value,omitempty"`
	NewValue     string         `gorm:"size:2048" json:"new_value,omitempty"`
	UpdatedBy    *int64         `json:"updated_by,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the table name for the Activity model.
func (Activity) TableName() string {
	return "ticket_activities"
}

// Activity types recorded against tickets.
const (
	ActivityStatusChanged   = "status_changed"
	ActivityCommentAdded    = "comment_added"
	ActivityCommentEdited   = "comment_edited"
	ActivityCommentDeleted  = "comment_deleted"
	ActivityAttachmentAdded = "comment_attachment_added"
)

// statusNames maps board column IDs to their display names.
var statusNames = map[int64]string{
	1: "Bug Found",
	2: "In progress",
	3: "In Review",
	4: "On Hold",
	5: "Reopen",
	6: "Closed",
}

// StatusName returns the display name for a status ID, or "Unknown" for
// IDs outside the board's columns.
func StatusName(statusID int64) string {
	if name, ok := statusNames[statusID]; ok {
		return name
	}
	return "Unknown"
}

// MoveResult is the payload broadcast after a card changes column.
type MoveResult struct {
	ID            int64  `json:"id"`
	StatusID      int64  `json:"status_id"`
	OldStatusID   int64  `json:"old_status_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	UpdatedBy     int64  `json:"updated_by"`
	UpdatedByName string `json:"updated_by_name"`
	ActivityID    int64  `json:"activity_id"`
}

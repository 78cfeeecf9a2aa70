package comment

import "time"

// Comment is the source-of-truth row for a comment on a task.
type Comment struct {
	ID        int64     `gorm:"primarykey" json:"id"`
	TicketID  int64     `gorm:"not null;index" json:"ticket_id"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	Comment   string    `gorm:"size:4096;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Comment model.
func (Comment) TableName() string {
	return "ticket_comments"
}

// Attachment is a stored file linked to a task's comment thread.
type Attachment struct {
	ID        int64     `gorm:"primarykey" json:"id"`
	TicketID  int64     `gorm:"not null;index" json:"ticket_id"`
	FileType  string    `gorm:"size:32;not null" json:"file_type"`
	FileURL   string    `gorm:"size:512;not null" json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Attachment model.
func (Attachment) TableName() string {
	return "comment_attachments"
}

// Entry is one row of a task's comment feed as relayed to clients: the
// activity row joined with the author (and editor, when present).
type Entry struct {
	ID              int64     `json:"id"`
	TicketID        int64     `json:"ticket_id"`
	UserID          int64     `json:"user_id"`
	UserName        string    `json:"user_name"`
	ActivityType    string    `json:"activity_type"`
	OldMessage      string    `json:"old_message,omitempty"`
	Message         string    `json:"message"`
	UpdatedBy       *int64    `json:"updated_by,omitempty"`
	UpdatedUserName string    `json:"updated_user_name,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

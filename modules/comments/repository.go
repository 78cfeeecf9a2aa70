package comments

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/example/kanban-realtime-demo/domain/comment"
	"github.com/example/kanban-realtime-demo/domain/ticket"
	"github.com/example/kanban-realtime-demo/domain/user"
)

var (
	// ErrActivityNotFound is returned when no activity matches the lookup.
	ErrActivityNotFound = errors.New("activity not found")
)

// Repository provides access to comment, activity and attachment storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a comments repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// userName resolves a user's display name, defaulting to "Unknown" for rows
// referencing deleted accounts.
func userName(tx *gorm.DB, userID int64) string {
	var u user.User
	if err := tx.First(&u, "id = ?", userID).Error; err != nil {
		return "Unknown"
	}
	return u.Name
}

// Create inserts a comment plus its comment_added activity in one
// transaction and returns the feed entry for the new comment.
func (r *Repository) Create(taskID, userID int64, message string) (*comment.Entry, error) {
	var entry comment.Entry

	err := r.db.Transaction(func(tx *gorm.DB) error {
		c := comment.Comment{TicketID: taskID, UserID: userID, Comment: message}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		activity := ticket.Activity{
			TicketID:     taskID,
			UserID:       userID,
			CommentID:    &c.ID,
			ActivityType: ticket.ActivityCommentAdded,
			NewValue:     message,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return fmt.Errorf("failed to record activity: %w", err)
		}

		entry = comment.Entry{
			ID:           activity.ID,
			TicketID:     taskID,
			UserID:       userID,
			UserName:     userName(tx, userID),
			ActivityType: ticket.ActivityCommentAdded,
			Message:      message,
			CreatedAt:    activity.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByTask returns the task's comment feed: all non-deleted activities
// joined with their authors, oldest first.
func (r *Repository) ListByTask(taskID int64) ([]comment.Entry, error) {
	var activities []ticket.Activity
	if err := r.db.Where("ticket_id = ?", taskID).Order("created_at asc, id asc").Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	entries := make([]comment.Entry, 0, len(activities))
	for _, a := range activities {
		entry := comment.Entry{
			ID:           a.ID,
			TicketID:     a.TicketID,
			UserID:       a.UserID,
			UserName:     userName(r.db, a.UserID),
			ActivityType: a.ActivityType,
			OldMessage:   a.OldValue,
			Message:      a.NewValue,
			UpdatedBy:    a.UpdatedBy,
			CreatedAt:    a.CreatedAt,
		}
		if a.UpdatedBy != nil {
			entry.UpdatedUserName = userName(r.db, *a.UpdatedBy)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EditResult is returned after a comment edit; the activity row is updated
// in place so clients can replace it by ID.
type EditResult struct {
	ID              int64     `json:"id"`
	TicketID        int64     `json:"ticket_id"`
	Message         string    `json:"message"`
	Edited          bool      `json:"edited"`
	OldMessage      string    `json:"old_message"`
	UpdatedBy       int64     `json:"updated_by"`
	UpdatedUserName string    `json:"updated_user_name"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Edit rewrites a comment's text. The original comment_added activity is
// updated in place and a comment_edited history row is added for audit.
func (r *Repository) Edit(activityID int64, content string, userID int64) (*EditResult, error) {
	var result EditResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var activity ticket.Activity
		if err := tx.Where("id = ? AND activity_type = ?", activityID, ticket.ActivityCommentAdded).
			First(&activity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return fmt.Errorf("failed to load activity: %w", err)
		}
		if activity.CommentID == nil {
			return ErrActivityNotFound
		}

		var c comment.Comment
		if err := tx.First(&c, "id = ?", *activity.CommentID).Error; err != nil {
			return fmt.Errorf("failed to load comment: %w", err)
		}
		oldMessage := c.Comment

		if err := tx.Model(&comment.Comment{}).Where("id = ?", c.ID).
			Update("comment", content).Error; err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}

		if err := tx.Model(&ticket.Activity{}).Where("id = ?", activityID).Updates(map[string]any{
			"new_value":  content,
			"old_value":  oldMessage,
			"updated_by": userID,
		}).Error; err != nil {
			return fmt.Errorf("failed to update activity: %w", err)
		}

		history := ticket.Activity{
			TicketID:     activity.TicketID,
			UserID:       userID,
			CommentID:    activity.CommentID,
			ActivityType: ticket.ActivityCommentEdited,
			OldValue:     oldMessage,
			NewValue:     content,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to record edit history: %w", err)
		}

		result = EditResult{
			ID:              activityID,
			TicketID:        activity.TicketID,
			Message:         content,
			Edited:          true,
			OldMessage:      oldMessage,
			UpdatedBy:       userID,
			UpdatedUserName: userName(tx, userID),
			UpdatedAt:       time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteResult is returned after a comment deletion.
type DeleteResult struct {
	ID              int64     `json:"id"`
	TicketID        int64     `json:"ticket_id"`
	Deleted         bool      `json:"deleted"`
	DeletedBy       int64     `json:"deleted_by"`
	DeletedUserName string    `json:"deleted_user_name"`
	DeletedComment  string    `json:"deleted_comment"`
	ActivityID      int64     `json:"activity_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Delete soft-deletes the original activity, removes the comment row and
// records a comment_deleted activity naming the deleter and the owner.
func (r *Repository) Delete(activityID, userID int64) (*DeleteResult, error) {
	var result DeleteResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var activity ticket.Activity
		if err := tx.First(&activity, "id = ?", activityID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrActivityNotFound
			}
			return fmt.Errorf("failed to load activity: %w", err)
		}

		var deletedText, ownerName string
		if activity.CommentID != nil {
			var c comment.Comment
			if err := tx.First(&c, "id = ?", *activity.CommentID).Error; err == nil {
				deletedText = c.Comment
				ownerName = userName(tx, c.UserID)
			}
		}

		if err := tx.Delete(&ticket.Activity{}, "id = ?", activityID).Error; err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}
		if activity.CommentID != nil {
			if err := tx.Unscoped().Delete(&comment.Comment{}, "id = ?", *activity.CommentID).Error; err != nil {
				return fmt.Errorf("failed to delete comment: %w", err)
			}
		}

		audit, err := json.Marshal(map[string]any{
			"deleted_by":    userID,
			"comment_owner": ownerName,
		})
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		tombstone := ticket.Activity{
			TicketID:     activity.TicketID,
			UserID:       userID,
			CommentID:    activity.CommentID,
			ActivityType: ticket.ActivityCommentDeleted,
			OldValue:     deletedText,
			NewValue:     string(audit),
		}
		if err := tx.Create(&tombstone).Error; err != nil {
			return fmt.Errorf("failed to record deletion: %w", err)
		}

		result = DeleteResult{
			ID:              activityID,
			TicketID:        activity.TicketID,
			Deleted:         true,
			DeletedBy:       userID,
			DeletedUserName: userName(tx, userID),
			DeletedComment:  deletedText,
			ActivityID:      tombstone.ID,
			CreatedAt:       time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddAttachment inserts an attachment row plus its activity record.
func (r *Repository) AddAttachment(taskID, userID int64, fileType, fileURL string) (*comment.Attachment, error) {
	var att comment.Attachment

	err := r.db.Transaction(func(tx *gorm.DB) error {
		att = comment.Attachment{TicketID: taskID, FileType: fileType, FileURL: fileURL}
		if err := tx.Create(&att).Error; err != nil {
			return fmt.Errorf("failed to create attachment: %w", err)
		}

		meta, err := json.Marshal(map[string]string{"fileType": fileType, "fileUrl": fileURL})
		if err != nil {
			return fmt.Errorf("failed to encode attachment metadata: %w", err)
		}
		activity := ticket.Activity{
			TicketID:     taskID,
			UserID:       userID,
			ActivityType: ticket.ActivityAttachmentAdded,
			NewValue:     string(meta),
		}
		if err := tx.Create(&activity).Error; err != nil {
			return fmt.Errorf("failed to record attachment activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &att, nil
}

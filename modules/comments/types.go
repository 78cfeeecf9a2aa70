package comments

import (
	"github.com/example/kanban-realtime-demo/domain/comment"
)

// CreateRequest is the services.comments.create request.
type CreateRequest struct {
	TaskID  int64  `json:"task_id"`
	UserID  int64  `json:"user_id"`
	Message string `json:"message"`
}

// ListRequest is the services.comments.list request.
type ListRequest struct {
	TaskID int64 `json:"task_id"`
}

// ListResponse is the services.comments.list response.
type ListResponse struct {
	Entries []comment.Entry `json:"entries"`
}

// EditRequest is the services.comments.edit request.
type EditRequest struct {
	ActivityID int64  `json:"activity_id"`
	Content    string `json:"content"`
	UserID     int64  `json:"user_id"`
}

// DeleteRequest is the services.comments.delete request.
type DeleteRequest struct {
	ActivityID int64 `json:"activity_id"`
	UserID     int64 `json:"user_id"`
}

// AttachRequest is the services.comments.attach request.
type AttachRequest struct {
	TaskID   int64  `json:"task_id"`
	UserID   int64  `json:"user_id"`
	FileType string `json:"file_type"`
	FileURL  string `json:"file_url"`
}

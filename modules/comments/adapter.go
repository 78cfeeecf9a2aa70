package comments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/kanban-realtime-demo/domain/comment"
)

// Service subjects exposed by this module.
const (
	ServiceCreate = "services.comments.create"
	ServiceList   = "services.comments.list"
	ServiceEdit   = "services.comments.edit"
	ServiceDelete = "services.comments.delete"
	ServiceAttach = "services.comments.attach"
)

// Port defines the comment operations other modules consume.
type Port interface {
	Create(ctx context.Context, taskID, userID int64, message string) (*comment.Entry, error)
	ListByTask(ctx context.Context, taskID int64) ([]comment.Entry, error)
	Edit(ctx context.Context, activityID int64, content string, userID int64) (*EditResult, error)
	Delete(ctx context.Context, activityID, userID int64) (*DeleteResult, error)
	AddAttachment(ctx context.Context, taskID, userID int64, fileType, fileURL string) (*comment.Attachment, error)
}

// Adapter implements Port over the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a comments adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("comments: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// Create persists a comment and returns its feed entry.
func (a *Adapter) Create(ctx context.Context, taskID, userID int64, message string) (*comment.Entry, error) {
	req := CreateRequest{TaskID: taskID, UserID: userID, Message: message}
	var resp comment.Entry
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceCreate, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &resp, nil
}

// ListByTask retrieves a task's comment feed.
func (a *Adapter) ListByTask(ctx context.Context, taskID int64) ([]comment.Entry, error) {
	req := ListRequest{TaskID: taskID}
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceList, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return resp.Entries, nil
}

// Edit rewrites a comment's text.
func (a *Adapter) Edit(ctx context.Context, activityID int64, content string, userID int64) (*EditResult, error) {
	req := EditRequest{ActivityID: activityID, Content: content, UserID: userID}
	var resp EditResult
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceEdit, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to edit comment: %w", err)
	}
	return &resp, nil
}

// Delete removes a comment.
func (a *Adapter) Delete(ctx context.Context, activityID, userID int64) (*DeleteResult, error) {
	req := DeleteRequest{ActivityID: activityID, UserID: userID}
	var resp DeleteResult
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceDelete, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}
	return &resp, nil
}

// AddAttachment records a stored file against a task.
func (a *Adapter) AddAttachment(ctx context.Context, taskID, userID int64, fileType, fileURL string) (*comment.Attachment, error) {
	req := AttachRequest{TaskID: taskID, UserID: userID, FileType: fileType, FileURL: fileURL}
	var resp comment.Attachment
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceAttach, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}
	return &resp, nil
}

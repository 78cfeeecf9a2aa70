package storage

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
	ServiceAttach = "services.storage.attach"
	ServiceStore  = "services.storage.store"
)

// Port defines the storage operations other modules consume.
type Port interface {
	SaveAttachment(ctx context.Context, taskID, userID int64, file FilePayload) (*comment.Attachment, error)
	Store(ctx context.Context, name, contentType string, data []byte) (*StoredFile, error)
}

// Adapter implements Port over the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates a storage adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("storage: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// SaveAttachment validates, stores and records one attachment.
func (a *Adapter) SaveAttachment(ctx context.Context, taskID, userID int64, file FilePayload) (*comment.Attachment, error) {
	req := AttachRequest{TaskID: taskID, UserID: userID, File: file}
	var resp comment.Attachment
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceAttach, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}
	return &resp, nil
}

// Store writes a raw file under the uploads root.
func (a *Adapter) Store(ctx context.Context, name, contentType string, data []byte) (*StoredFile, error) {
	req := StoreRequest{Name: name, Type: contentType, Data: data}
	var resp StoredFile
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceStore, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	return &resp, nil
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/kanban-realtime-demo/domain/comment"
	"github.com/example/kanban-realtime-demo/modules/comments"
)

// Module stores attachment files on disk and records them against tasks
// through the comments module.
type Module struct {
	uploader  *Uploader
	comments  comments.Port
	uploadDir string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)

// NewModule creates the storage module. UPLOAD_DIR overrides the default
// uploads root.
func NewModule() *Module {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return &Module{uploadDir: dir}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "storage"
}

// Dependencies returns the modules this one needs.
func (m *Module) Dependencies() []string {
	return []string{"comments"}
}

// SetDependencyServiceContainer receives dependency service containers.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "comments" {
		m.comments = comments.NewAdapter(container)
	}
}

// Start prepares the uploads root.
func (m *Module) Start(_ context.Context) error {
	if m.comments == nil {
		return fmt.Errorf("comments dependency not set")
	}
	uploader, err := NewUploader(m.uploadDir)
	if err != nil {
		return err
	}
	m.uploader = uploader
	if err := os.MkdirAll(m.uploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	log.Printf("[storage] Module started, uploads rooted at %s", m.uploadDir)
	return nil
}

// Stop is a no-op; files stay on disk.
func (m *Module) Stop(_ context.Context) error {
	return nil
}

// RegisterServices registers the storage request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "attach", json.Unmarshal, json.Marshal, m.attach,
	); err != nil {
		return fmt.Errorf("failed to register attach service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, "store", json.Unmarshal, json.Marshal, m.store,
	); err != nil {
		return fmt.Errorf("failed to register store service: %w", err)
	}
	log.Printf("[storage] Registered services: services.storage.{attach,store}")
	return nil
}

// attach stores one attachment file and records it against the task's
// comment thread.
func (m *Module) attach(ctx context.Context, req AttachRequest, _ *mono.Msg) (comment.Attachment, error) {
	stored, err := m.uploader.SaveBase64(req.File.Name, req.File.Type, req.File.Data)
	if err != nil {
		return comment.Attachment{}, err
	}
	att, err := m.comments.AddAttachment(ctx, req.TaskID, req.UserID, stored.FileType, stored.URL)
	if err != nil {
		return comment.Attachment{}, err
	}
	return *att, nil
}

// store writes a raw file to disk without any task linkage; used by the
// HTTP upload endpoint.
func (m *Module) store(_ context.Context, req StoreRequest, _ *mono.Msg) (StoredFile, error) {
	stored, err := m.uploader.Save(req.Name, req.Type, req.Data)
	if err != nil {
		return StoredFile{}, err
	}
	return *stored, nil
}

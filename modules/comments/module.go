package comments

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/kanban-realtime-demo/domain/comment"
	"github.com/example/kanban-realtime-demo/domain/ticket"
)

// Module provides comment, activity-feed and attachment persistence.
type Module struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the comments module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "kanban.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "comments"
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := m.db.AutoMigrate(&comment.Comment{}, &comment.Attachment{}, &ticket.Activity{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewRepository(m.db)

	log.Println("[comments] Module started")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Health reports database reachability.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers the comment request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]error{
		"create": helper.RegisterTypedRequestReplyService(container, "create", json.Unmarshal, json.Marshal, m.create),
		"list":   helper.RegisterTypedRequestReplyService(container, "list", json.Unmarshal, json.Marshal, m.list),
		"edit":   helper.RegisterTypedRequestReplyService(container, "edit", json.Unmarshal, json.Marshal, m.edit),
		"delete": helper.RegisterTypedRequestReplyService(container, "delete", json.Unmarshal, json.Marshal, m.delete),
		"attach": helper.RegisterTypedRequestReplyService(container, "attach", json.Unmarshal, json.Marshal, m.attach),
	}
	for name, err := range services {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}
	log.Printf("[comments] Registered services: services.comments.{create,list,edit,delete,attach}")
	return nil
}

// create handles the comments.create service request.
func (m *Module) create(_ context.Context, req CreateRequest, _ *mono.Msg) (comment.Entry, error) {
	if req.Message == "" {
		return comment.Entry{}, fmt.Errorf("message is required")
	}
	entry, err := m.repo.Create(req.TaskID, req.UserID, req.Message)
	if err != nil {
		return comment.Entry{}, err
	}
	return *entry, nil
}

// list handles the comments.list service request.
func (m *Module) list(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	entries, err := m.repo.ListByTask(req.TaskID)
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Entries: entries}, nil
}

// edit handles the comments.edit service request.
func (m *Module) edit(_ context.Context, req EditRequest, _ *mono.Msg) (EditResult, error) {
	if req.ActivityID == 0 || req.Content == "" {
		return EditResult{}, fmt.Errorf("activity_id and content are required")
	}
	result, err := m.repo.Edit(req.ActivityID, req.Content, req.UserID)
	if err != nil {
		return EditResult{}, err
	}
	return *result, nil
}

// delete handles the comments.delete service request.
func (m *Module) delete(_ context.Context, req DeleteRequest, _ *mono.Msg) (DeleteResult, error) {
	if req.ActivityID == 0 {
		return DeleteResult{}, fmt.Errorf("activity_id is required")
	}
	result, err := m.repo.Delete(req.ActivityID, req.UserID)
	if err != nil {
		return DeleteResult{}, err
	}
	return *result, nil
}

// attach handles the comments.attach service request.
func (m *Module) attach(_ context.Context, req AttachRequest, _ *mono.Msg) (comment.Attachment, error) {
	if req.FileURL == "" || req.FileType == "" {
		return comment.Attachment{}, fmt.Errorf("file_type and file_url are required")
	}
	att, err := m.repo.AddAttachment(req.TaskID, req.UserID, req.FileType, req.FileURL)
	if err != nil {
		return comment.Attachment{}, err
	}
	return *att, nil
}

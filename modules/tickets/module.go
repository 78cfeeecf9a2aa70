package tickets

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

	"github.com/example/kanban-realtime-demo/domain/ticket"
)

// Module provides ticket persistence services via GORM + SQLite.
type Module struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the tickets module.
func NewModule() *Module {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "kanban.db"
	}
	return &Module{dbPath: dbPath}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "tickets"
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

	if err := m.db.AutoMigrate(&ticket.Ticket{}, &ticket.Activity{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewRepository(m.db)

	log.Println("[tickets] Module started")
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

// RegisterServices registers the ticket request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	services := map[string]error{
		"create": helper.RegisterTypedRequestReplyService(container, "create", json.Unmarshal, json.Marshal, m.create),
		"update": helper.RegisterTypedRequestReplyService(container, "update", json.Unmarshal, json.Marshal, m.update),
		"delete": helper.RegisterTypedRequestReplyService(container, "delete", json.Unmarshal, json.Marshal, m.delete),
		"move":   helper.RegisterTypedRequestReplyService(container, "move", json.Unmarshal, json.Marshal, m.move),
		"list":   helper.RegisterTypedRequestReplyService(container, "list", json.Unmarshal, json.Marshal, m.list),
	}
	for name, err := range services {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
	}
	log.Printf("[tickets] Registered services: services.tickets.{create,update,delete,move,list}")
	return nil
}

// create handles the tickets.create service request.
func (m *Module) create(_ context.Context, req CreateRequest, _ *mono.Msg) (ticket.Ticket, error) {
	if req.Title == "" {
		return ticket.Ticket{}, fmt.Errorf("title is required")
	}
	if req.StatusID == 0 {
		return ticket.Ticket{}, fmt.Errorf("status_id is required")
	}
	t, err := m.repo.Create(req.Title, req.StatusID, req.UserID)
	if err != nil {
		return ticket.Ticket{}, err
	}
	return *t, nil
}

// update handles the tickets.update service request.
func (m *Module) update(_ context.Context, req UpdateRequest, _ *mono.Msg) (ticket.Ticket, error) {
	if req.ID == 0 || req.Title == "" {
		return ticket.Ticket{}, fmt.Errorf("id and title are required")
	}
	t, err := m.repo.Update(req.ID, req.Title, req.StatusID, req.UserID)
	if err != nil {
		return ticket.Ticket{}, err
	}
	return *t, nil
}

// delete handles the tickets.delete service request.
func (m *Module) delete(_ context.Context, req DeleteRequest, _ *mono.Msg) (DeleteResponse, error) {
	if req.ID == 0 {
		return DeleteResponse{}, fmt.Errorf("id is required")
	}
	if err := m.repo.Delete(req.ID); err != nil {
		return DeleteResponse{}, err
	}
	return DeleteResponse{ID: req.ID}, nil
}

// move handles the tickets.move service request.
func (m *Module) move(_ context.Context, req MoveRequest, _ *mono.Msg) (ticket.MoveResult, error) {
	if req.ID == 0 {
		return ticket.MoveResult{}, fmt.Errorf("id is required")
	}
	result, err := m.repo.Move(req.ID, req.StatusID, req.UserID)
	if err != nil {
		return ticket.MoveResult{}, err
	}
	return *result, nil
}

// list handles the tickets.list service request.
func (m *Module) list(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	var (
		out []ticket.Ticket
		err error
	)
	if req.UserID != 0 {
		out, err = m.repo.FindByUser(req.UserID)
	} else {
		out, err = m.repo.FindAll()
	}
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Tickets: out}, nil
}

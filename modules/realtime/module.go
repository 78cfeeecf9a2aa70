package realtime

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-monolith/mono"

	"github.com/example/kanban-realtime-demo/modules/auth"
	"github.com/example/kanban-realtime-demo/modules/comments"
	"github.com/example/kanban-realtime-demo/modules/storage"
	"github.com/example/kanban-realtime-demo/modules/tickets"
)

// Module runs both room families and their liveness monitors.
type Module struct {
	authPort    auth.Port
	ticketPort  tickets.Port
	commentPort comments.Port
	storagePort storage.Port

	boardMux *Mux
	taskMux  *Mux

	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the realtime module. WS_PROBE_INTERVAL overrides the
// liveness sweep interval in seconds.
func NewModule() *Module {
	interval := DefaultProbeInterval
	if raw := os.Getenv("WS_PROBE_INTERVAL"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			interval = time.Duration(secs) * time.Second
		}
	}
	return &Module{interval: interval}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "realtime"
}

// Dependencies returns the modules this one needs.
func (m *Module) Dependencies() []string {
	return []string{"auth", "tickets", "comments", "storage"}
}

// SetDependencyServiceContainer receives dependency service containers.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAdapter(container)
	case "tickets":
		m.ticketPort = tickets.NewAdapter(container)
	case "comments":
		m.commentPort = comments.NewAdapter(container)
	case "storage":
		m.storagePort = storage.NewAdapter(container)
	}
}

// Start builds both multiplexers and launches their liveness monitors.
func (m *Module) Start(_ context.Context) error {
	if m.authPort == nil || m.ticketPort == nil || m.commentPort == nil || m.storagePort == nil {
		return fmt.Errorf("realtime: missing dependency containers")
	}

	m.boardMux = NewBoardMux(m.authPort, m.ticketPort)
	m.taskMux = NewTaskMux(m.authPort, m.commentPort, m.storagePort)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	for _, mon := range []*Monitor{
		NewMonitor(m.boardMux, m.interval),
		NewMonitor(m.taskMux, m.interval),
	} {
		m.wg.Add(1)
		go func(mon *Monitor) {
			defer m.wg.Done()
			mon.Run(ctx)
		}(mon)
	}

	log.Printf("[realtime] Module started, probing every %s", m.interval)
	return nil
}

// Stop halts the monitors and closes every tracked connection.
func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	for _, mux := range []*Mux{m.boardMux, m.taskMux} {
		if mux == nil {
			continue
		}
		for _, c := range mux.Connections() {
			c.Terminate()
			mux.HandleClose(c)
		}
	}
	log.Println("[realtime] Module stopped")
	return nil
}

// BoardMux returns the board-room multiplexer for the HTTP layer.
func (m *Module) BoardMux() *Mux { return m.boardMux }

// TaskMux returns the task-room multiplexer for the HTTP layer.
func (m *Module) TaskMux() *Mux { return m.taskMux }

// Health reports room and connection counts per family.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.boardMux == nil || m.taskMux == nil {
		return mono.HealthStatus{Healthy: false, Message: "multiplexers not initialized"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"board_rooms":       m.boardMux.Rooms().RoomCount(),
			"board_connections": len(m.boardMux.Connections()),
			"task_rooms":        m.taskMux.Rooms().RoomCount(),
			"task_connections":  len(m.taskMux.Connections()),
		},
	}
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/kanban-realtime-demo/modules/api"
	"github.com/example/kanban-realtime-demo/modules/auth"
	"github.com/example/kanban-realtime-demo/modules/comments"
	"github.com/example/kanban-realtime-demo/modules/realtime"
	"github.com/example/kanban-realtime-demo/modules/storage"
	"github.com/example/kanban-realtime-demo/modules/tickets"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Kanban Realtime Demo - Fiber + WebSocket Rooms ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	authModule := auth.NewModule()
	ticketsModule := tickets.NewModule()
	commentsModule := comments.NewModule()
	storageModule := storage.NewModule()
	realtimeModule := realtime.NewModule()
	apiModule := api.NewModule()

	// Inject the realtime module into the API module.
	// (This is done manually because the multiplexers are not exposed via
	// ServiceContainer.)
	apiModule.SetRealtime(realtimeModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - auth, tickets, comments: core domain services
	// - storage: uploads, depends on comments for attachment records
	// - realtime: room multiplexers, depends on all domain services
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(authModule)
	app.Register(ticketsModule)
	app.Register(commentsModule)
	app.Register(storageModule)
	app.Register(realtimeModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                    - Health check")
	log.Println("  POST   /api/auth/login            - Obtain a JWT")
	log.Println("  POST   /api/auth/logout           - Revoke the bearer token")
	log.Println("  POST   /api/upload                - Store a multipart file batch")
	log.Println("  PUT    /api/comments/:activityID  - Edit a comment")
	log.Println("  DELETE /api/comments/:activityID  - Delete a comment")
	log.Println("  GET    /uploads/...               - Stored attachments")
	log.Println("")
	log.Printf("WebSocket Endpoints (ws://localhost:%s):", port)
	log.Println("  /ws/kanban   - Board rooms: JOIN_BOARD, CREATE_CARD, UPDATE_CARD,")
	log.Println("                 DELETE_CARD, MOVE_CARD, GET_ALL_TICKETS, GET_USER_TICKETS,")
	log.Println("                 GET_USERS, GET_ALL_USERS, PING, LEAVE_BOARD")
	log.Println("  /ws/comments - Task rooms: JOIN_TASK, GET_COMMENTS, CREATE_COMMENT,")
	log.Println("                 UPLOAD_ATTACHMENTS")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

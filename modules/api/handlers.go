package api

import (
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/kanban-realtime-demo/domain/user"
	"github.com/example/kanban-realtime-demo/modules/storage"
)

// setupRoutes configures all HTTP routes.
func (m *Module) setupRoutes() {
	m.app.Get("/health", m.healthHandler)

	// WebSocket endpoints, one per room family
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws/kanban", websocket.New(m.rt.BoardMux().Serve))
	m.app.Get("/ws/comments", websocket.New(m.rt.TaskMux().Serve))

	api := m.app.Group("/api")
	api.Post("/auth/login", m.login)
	api.Post("/auth/logout", m.logout)
	api.Post("/upload", m.upload)
	api.Put("/comments/:activityID", m.editComment)
	api.Delete("/comments/:activityID", m.deleteComment)

	// Stored attachments are served straight from disk
	m.app.Static("/uploads", m.uploads)
}

// healthHandler handles GET /health.
func (m *Module) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "healthy",
		Details: map[string]any{
			"module": "api",
		},
	})
}

// login handles POST /api/auth/login.
func (m *Module) login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Email and password are required",
		})
	}

	resp, err := m.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "auth_failed",
			Message: "Invalid email or password",
		})
	}
	return c.JSON(resp)
}

// logout handles POST /api/auth/logout. The bearer token is revoked for the
// remainder of its lifetime.
func (m *Module) logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "auth_failed",
			Message: "Missing bearer token",
		})
	}
	if err := m.auth.Logout(c.UserContext(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "logout_failed",
			Message: "Failed to revoke token",
		})
	}
	return c.JSON(LogoutResponse{Success: true})
}

// upload handles POST /api/upload: a multipart batch stored on disk without a
// comment-feed entry. Attachments tied to a task go through the socket
// command instead.
func (m *Module) upload(c *fiber.Ctx) error {
	if _, ok := m.identity(c); !ok {
		return nil
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "No files provided",
		})
	}

	stored := make([]storage.StoredFile, 0, len(form.File["files"]))
	for _, header := range form.File["files"] {
		f, err := header.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: "Unreadable file: " + header.Filename,
			})
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_request",
				Message: "Unreadable file: " + header.Filename,
			})
		}

		rec, err := m.storage.Store(c.UserContext(), header.Filename, header.Header.Get("Content-Type"), data)
		if err != nil {
			log.Printf("[api] upload failed for %s: %v", header.Filename, err)
			return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
				Error:   "upload_failed",
				Message: "Failed to store " + header.Filename,
			})
		}
		stored = append(stored, *rec)
	}
	return c.Status(fiber.StatusCreated).JSON(stored)
}

// editComment handles PUT /api/comments/:activityID.
func (m *Module) editComment(c *fiber.Ctx) error {
	ident, ok := m.identity(c)
	if !ok {
		return nil
	}
	activityID, err := strconv.ParseInt(c.Params("activityID"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid activity id",
		})
	}

	var req EditCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Content is required",
		})
	}

	result, err := m.comments.Edit(c.UserContext(), activityID, req.Content, ident.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Comment not found",
		})
	}
	return c.JSON(result)
}

// deleteComment handles DELETE /api/comments/:activityID.
func (m *Module) deleteComment(c *fiber.Ctx) error {
	ident, ok := m.identity(c)
	if !ok {
		return nil
	}
	activityID, err := strconv.ParseInt(c.Params("activityID"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid activity id",
		})
	}

	result, err := m.comments.Delete(c.UserContext(), activityID, ident.UserID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Comment not found",
		})
	}
	return c.JSON(result)
}

// identity resolves the caller from the bearer token. On failure it writes
// the 401 response itself and reports ok=false.
func (m *Module) identity(c *fiber.Ctx) (user.Identity, bool) {
	token := bearerToken(c)
	if token == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "auth_failed",
			Message: "Missing bearer token",
		})
		return user.Identity{}, false
	}
	ident, err := m.auth.Verify(c.UserContext(), token)
	if err != nil {
		_ = c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "auth_failed",
			Message: "Invalid or expired token",
		})
		return user.Identity{}, false
	}
	return ident, true
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

package api

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// LoginRequest is the POST /api/auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutResponse is the POST /api/auth/logout body.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// EditCommentRequest is the PUT /api/comments/:activityID body.
type EditCommentRequest struct {
	Content string `json:"content"`
}

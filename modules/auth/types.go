package auth

// LoginRequest is the services.auth.login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the services.auth.login response.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// LogoutRequest is the services.auth.logout request.
type LogoutRequest struct {
	Token string `json:"token"`
}

// LogoutResponse is the services.auth.logout response.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// VerifyRequest is the services.auth.verify request.
type VerifyRequest struct {
	Token string `json:"token"`
}

// VerifyResponse is the services.auth.verify response.
type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID int64  `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Error  string `json:"error,omitempty"`
}

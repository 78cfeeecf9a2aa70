package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/kanban-realtime-demo/domain/user"
)

// Service subjects exposed by this module.
const (
	ServiceLogin  = "services.auth.login"
	ServiceLogout = "services.auth.logout"
	ServiceVerify = "services.auth.verify"
)

// Port defines the auth operations other modules consume.
type Port interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (user.Identity, error)
}

// Adapter implements Port over the service container.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates an auth adapter.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// Login authenticates credentials and returns a session token.
func (a *Adapter) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp LoginResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceLogin, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &resp, nil
}

// Logout revokes a session token.
func (a *Adapter) Logout(ctx context.Context, token string) error {
	req := LogoutRequest{Token: token}
	var resp LogoutResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceLogout, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// Verify validates a token and returns the identity it carries. Verification
// failures come back as errors so callers treat them uniformly.
func (a *Adapter) Verify(ctx context.Context, token string) (user.Identity, error) {
	req := VerifyRequest{Token: token}
	var resp VerifyResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceVerify, json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return user.Identity{}, fmt.Errorf("verify failed: %w", err)
	}
	if !resp.Valid {
		return user.Identity{}, errors.New(resp.Error)
	}
	return user.Identity{UserID: resp.UserID, Name: resp.Name, Email: resp.Email}, nil
}

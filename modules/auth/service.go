package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/kanban-realtime-demo/domain/user"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login credentials do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles login, logout and token verification.
type Service struct {
	repo        *UserRepository
	jwt         *JWTManager
	revocations RevocationStore
}

// NewService creates an auth service.
func NewService(repo *UserRepository, jwt *JWTManager, revocations RevocationStore) *Service {
	return &Service{repo: repo, jwt: jwt, revocations: revocations}
}

// Login authenticates credentials and issues a session token.
func (s *Service) Login(_ context.Context, email, password string) (user.Identity, string, error) {
	u, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return user.Identity{}, "", ErrInvalidCredentials
		}
		return user.Identity{}, "", fmt.Errorf("failed to find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.Identity{}, "", ErrInvalidCredentials
	}

	ident := user.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
	token, err := s.jwt.Generate(ident)
	if err != nil {
		return user.Identity{}, "", fmt.Errorf("failed to sign token: %w", err)
	}
	return ident, token, nil
}

// Logout revokes the token for the remainder of its lifetime. Tokens that no
// longer verify are revoked for the full TTL as a conservative bound.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrTokenMissing
	}
	ttl := s.jwt.TokenTTL()
	if claims, err := s.jwt.Validate(token); err == nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.revocations.Revoke(ctx, token, ttl)
}

// Verify checks presence, revocation, then signature and expiry, and returns
// the token's identity. This is the gate every join command passes through.
func (s *Service) Verify(ctx context.Context, token string) (user.Identity, error) {
	if token == "" {
		return user.Identity{}, ErrTokenMissing
	}
	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return user.Identity{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return user.Identity{}, ErrTokenRevoked
	}
	claims, err := s.jwt.Validate(token)
	if err != nil {
		return user.Identity{}, err
	}
	return user.Identity{UserID: claims.UserID, Name: claims.Name, Email: claims.Email}, nil
}

package auth

import (
	"context"
)

// MockVerifier returns a fixed identity or error for any token.
type MockVerifier struct {
	Identity *Identity
	Error    error
}

func (m *MockVerifier) Verify(_ context.Context, _ string) (*Identity, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	return m.Identity, nil
}

// TokenVerifier treats the bearer token itself as the UID. It backs
// auth.mode=mock for local development without a Firebase project.
type TokenVerifier struct{}

func (TokenVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: token}, nil
}

// TestIdentity returns the identity used across handler tests.
func TestIdentity() *Identity {
	return &Identity{
		UID:           "test-user-123",
		Email:         "test@example.com",
		EmailVerified: true,
	}
}

var (
	_ Verifier = (*MockVerifier)(nil)
	_ Verifier = TokenVerifier{}
)

package ports

import (
	"context"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
)

// RegisterInput carries a new account request. Role is intentionally
// absent: every registration starts as a member.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// AuthService implements registration, login and profile lookup.
type AuthService interface {
	// Register creates the account and returns a fresh token alongside the
	// public profile. Returns domain.ErrEmailTaken on duplicate email.
	Register(ctx context.Context, in RegisterInput) (string, *domain.User, error)
	// Login returns domain.ErrInvalidCredentials for unknown email and
	// wrong password alike.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Profile(ctx context.Context, userID string) (*domain.User, error)
}

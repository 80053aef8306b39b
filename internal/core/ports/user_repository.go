package ports

import (
	"context"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
)

// UserRepository defines persistence for user identity records. The
// repository exclusively owns User documents; nothing else writes them.
type UserRepository interface {
	// FindByEmail looks a user up by normalized (lowercased) email.
	// Returns domain.ErrUserNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Insert creates a new user. Returns domain.ErrEmailTaken when the
	// unique email index rejects the write.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// Save persists role or profile changes to an existing user. Used by
	// privilege-escalation tooling, never by the public API.
	Save(ctx context.Context, user *domain.User) error
}

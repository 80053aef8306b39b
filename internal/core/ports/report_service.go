package ports

import (
	"context"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
)

// Identity is the caller resolved from a verified token by the auth
// middleware. Role is embedded at token issuance, so a role change only
// takes effect once the caller obtains a new token.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == domain.RoleAdmin
}

// CreateReportInput carries a new report. Image is the already-stored
// asset reference, or empty when no photo was attached.
type CreateReportInput struct {
	Title       string
	Description string
	Image       string
}

// UpdateReportInput is a presence-sensitive partial update: nil means the
// field was omitted from the request, a non-nil pointer means it was
// supplied (possibly as the empty string).
type UpdateReportInput struct {
	Title       *string
	Description *string
	Status      *string
	Image       *string
}

// ReportService is the authorization and lifecycle engine for reports.
type ReportService interface {
	Create(ctx context.Context, caller Identity, in CreateReportInput) (*domain.Report, error)
	List(ctx context.Context) ([]*domain.Report, error)
	ListByOwner(ctx context.Context, caller Identity) ([]*domain.Report, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
	// Update applies the permitted fields of in. A status field supplied by
	// a non-admin rejects the whole update with domain.ErrForbidden; no
	// partial write happens.
	Update(ctx context.Context, caller Identity, id string, in UpdateReportInput) (*domain.Report, error)
	// UpdateStatus is the admin-only transition operation. Any valid status
	// may follow any other.
	UpdateStatus(ctx context.Context, caller Identity, id string, status string) (*domain.Report, error)
	Delete(ctx context.Context, caller Identity, id string) error
}

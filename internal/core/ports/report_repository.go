package ports

import (
	"context"
	"time"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
)

// ReportPatch carries a partial update. Nil pointer means "field omitted";
// a pointer to the empty string means "set to empty". This presence
// distinction is load-bearing and must survive all the way to the store.
type ReportPatch struct {
	Title       *string
	Description *string
	Status      *domain.ReportStatus
	Image       *string
	UpdatedAt   time.Time
}

// Empty reports whether the patch would change nothing.
func (p ReportPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Image == nil
}

// ReportRepository defines persistence for flood reports.
type ReportRepository interface {
	Insert(ctx context.Context, r *domain.Report) (*domain.Report, error)
	// FindByID returns the report with its owner profile joined, or
	// domain.ErrReportNotFound.
	FindByID(ctx context.Context, id string) (*domain.Report, error)
	// FindAll returns every report, newest first, owner profile joined.
	FindAll(ctx context.Context) ([]*domain.Report, error)
	// FindByOwner returns the given user's reports, newest first.
	FindByOwner(ctx context.Context, ownerID string) ([]*domain.Report, error)
	// UpdateFields applies only the fields present in patch as a single
	// atomic update and returns the resulting document. Concurrent patches
	// to different fields of the same report must both land.
	UpdateFields(ctx context.Context, id string, patch ReportPatch) (*domain.Report, error)
	Delete(ctx context.Context, id string) error
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

// ReportService enforces who may do what to a report and applies the
// resulting mutations. Asset releases go through the releaser and never
// affect the outcome of the record operation.
type ReportService struct {
	repo     ports.ReportRepository
	releaser ports.AssetReleaser
	logger   zerolog.Logger
}

func NewReportService(repo ports.ReportRepository, releaser ports.AssetReleaser, logger zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, releaser: releaser, logger: logger}
}

func (s *ReportService) Create(ctx context.Context, caller ports.Identity, in ports.CreateReportInput) (*domain.Report, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("%w: title and description are required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	report := &domain.Report{
		OwnerID:     caller.UserID,
		Title:       title,
		Description: description,
		Image:       in.Image,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Insert(ctx, report)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("report_id", created.ID).Str("owner_id", caller.UserID).Msg("report created")
	return created, nil
}

func (s *ReportService) List(ctx context.Context) ([]*domain.Report, error) {
	return s.repo.FindAll(ctx)
}

func (s *ReportService) ListByOwner(ctx context.Context, caller ports.Identity) ([]*domain.Report, error) {
	return s.repo.FindByOwner(ctx, caller.UserID)
}

func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies a presence-sensitive partial update. Existence is checked
// before any authorization decision; a status field from a non-admin
// rejects the entire update before anything is written.
func (s *ReportService) Update(ctx context.Context, caller ports.Identity, id string, in ports.UpdateReportInput) (*domain.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := report.OwnerID == caller.UserID
	if !isOwner && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	patch := ports.ReportPatch{
		Title:       in.Title,
		Description: in.Description,
		Image:       in.Image,
		UpdatedAt:   time.Now().UTC(),
	}

	if in.Status != nil {
		if !caller.IsAdmin() {
			return nil, fmt.Errorf("%w: only admins may change status", domain.ErrForbidden)
		}
		status := domain.ReportStatus(*in.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *in.Status)
		}
		patch.Status = &status
	}

	if patch.Empty() {
		return report, nil
	}

	updated, err := s.repo.UpdateFields(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if in.Image != nil && report.Image != "" && report.Image != *in.Image {
		s.releaser.Enqueue(report.Image)
	}

	if patch.Status != nil && *patch.Status != report.Status {
		s.logger.Info().
			Str("report_id", id).
			Str("from", string(report.Status)).
			Str("to", string(*patch.Status)).
			Msg("report status changed")
	}

	return updated, nil
}

// UpdateStatus is the admin-only transition operation. The transition
// graph is fully connected: an admin may move a report backward.
func (s *ReportService) UpdateStatus(ctx context.Context, caller ports.Identity, id string, status string) (*domain.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may change status", domain.ErrForbidden)
	}

	next := domain.ReportStatus(status)
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	updated, err := s.repo.UpdateFields(ctx, id, ports.ReportPatch{
		Status:    &next,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("report_id", id).
		Str("from", string(report.Status)).
		Str("to", string(next)).
		Msg("report status changed")

	return updated, nil
}

func (s *ReportService) Delete(ctx context.Context, caller ports.Identity, id string) error {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if report.OwnerID != caller.UserID && !caller.IsAdmin() {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if report.Image != "" {
		s.releaser.Enqueue(report.Image)
	}

	s.logger.Info().Str("report_id", id).Str("caller_id", caller.UserID).Msg("report deleted")
	return nil
}

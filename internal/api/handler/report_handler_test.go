package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubReportService struct {
	createIn ports.CreateReportInput
	updateIn ports.UpdateReportInput
	updateID string
	status   string
	deleted  string
	report   *domain.Report
	err      error
}

func (s *stubReportService) Create(_ context.Context, _ ports.Identity, in ports.CreateReportInput) (*domain.Report, error) {
	s.createIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubReportService) List(_ context.Context) ([]*domain.Report, error) {
	return []*domain.Report{s.report}, s.err
}

func (s *stubReportService) ListByOwner(_ context.Context, _ ports.Identity) ([]*domain.Report, error) {
	return []*domain.Report{s.report}, s.err
}

func (s *stubReportService) Get(_ context.Context, _ string) (*domain.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubReportService) Update(_ context.Context, _ ports.Identity, id string, in ports.UpdateReportInput) (*domain.Report, error) {
	s.updateID = id
	s.updateIn = in
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubReportService) UpdateStatus(_ context.Context, _ ports.Identity, id string, status string) (*domain.Report, error) {
	s.updateID = id
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubReportService) Delete(_ context.Context, _ ports.Identity, id string) error {
	s.deleted = id
	return s.err
}

type stubAssets struct {
	stored []string
	err    error
}

func (s *stubAssets) Store(_ context.Context, filename string, _ io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	ref := "uploads/" + filename
	s.stored = append(s.stored, ref)
	return ref, nil
}

func (s *stubAssets) Release(_ context.Context, _ string) error { return nil }

func (s *stubAssets) Dir() string { return "uploads" }

type recordReleaser struct {
	refs []string
}

func (r *recordReleaser) Enqueue(ref string) { r.refs = append(r.refs, ref) }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func sampleReport() *domain.Report {
	return &domain.Report{
		ID:          "report_1",
		OwnerID:     "user_1",
		Title:       "Water on Main St",
		Description: "Knee-deep water",
		Status:      domain.StatusPending,
	}
}

func newReportHandlerSetup(svc *stubReportService) (*ReportHandler, *stubAssets, *recordReleaser) {
	assets := &stubAssets{}
	releaser := &recordReleaser{}
	return NewReportHandler(svc, assets, releaser), assets, releaser
}

func newJSONCtx(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user_1")
	c.Set("role", domain.RoleMember)
	return c, rec
}

// newMultipartCtx builds a multipart request from form fields plus an
// optional image file.
func newMultipartCtx(t *testing.T, fields map[string]string, imageName string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, "/api/reports", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", "user_1")
	c.Set("role", domain.RoleMember)
	return c, rec
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestReportHandler_Create(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, assets, _ := newReportHandlerSetup(svc)

	c, rec := newMultipartCtx(t, map[string]string{
		"title":       "Water on Main St",
		"description": "Knee-deep water",
	}, "photo.jpg")

	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.createIn.Title != "Water on Main St" {
		t.Fatalf("title not forwarded: %+v", svc.createIn)
	}
	if svc.createIn.Image != "uploads/photo.jpg" {
		t.Fatalf("stored image reference not forwarded: %q", svc.createIn.Image)
	}
	if len(assets.stored) != 1 {
		t.Fatalf("expected one stored asset, got %v", assets.stored)
	}
}

func TestReportHandler_Create_WithoutImage(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, assets, _ := newReportHandlerSetup(svc)

	c, rec := newMultipartCtx(t, map[string]string{
		"title":       "Flooded underpass",
		"description": "Road closed",
	}, "")

	if err := h.Create(c); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.createIn.Image != "" {
		t.Fatalf("expected no image, got %q", svc.createIn.Image)
	}
	if len(assets.stored) != 0 {
		t.Fatalf("no file uploaded but asset stored: %v", assets.stored)
	}
}

// The image lands on disk before the service decides; a rejected create
// must hand the fresh upload to the releaser instead of orphaning it.
func TestReportHandler_Create_RejectedUploadIsReleased(t *testing.T) {
	svc := &stubReportService{err: domain.ErrValidation}
	h, _, releaser := newReportHandlerSetup(svc)

	c, _ := newMultipartCtx(t, map[string]string{
		"title":       "",
		"description": "no title",
	}, "photo.jpg")

	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(releaser.refs) != 1 || releaser.refs[0] != "uploads/photo.jpg" {
		t.Fatalf("rejected upload not released: %v", releaser.refs)
	}
}

// ---------------------------------------------------------------------------
// Update: JSON presence semantics
// ---------------------------------------------------------------------------

func TestReportHandler_Update_JSONPresence(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, rec := newJSONCtx(t, http.MethodPut, "/api/reports/report_1", `{"title":"New title"}`)
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.updateID != "report_1" {
		t.Fatalf("id not forwarded: %q", svc.updateID)
	}
	if svc.updateIn.Title == nil || *svc.updateIn.Title != "New title" {
		t.Fatalf("title pointer not set: %+v", svc.updateIn)
	}
	if svc.updateIn.Description != nil || svc.updateIn.Status != nil {
		t.Fatalf("omitted fields must stay nil: %+v", svc.updateIn)
	}
}

// `{"title":""}` and `{}` are different requests: the first clears the
// title, the second touches nothing.
func TestReportHandler_Update_EmptyStringVsOmitted(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, _ := newJSONCtx(t, http.MethodPut, "/api/reports/report_1", `{"title":""}`)
	c.SetParamNames("id")
	c.SetParamValues("report_1")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if svc.updateIn.Title == nil || *svc.updateIn.Title != "" {
		t.Fatalf("explicit empty title must arrive as a non-nil pointer: %+v", svc.updateIn)
	}

	c, _ = newJSONCtx(t, http.MethodPut, "/api/reports/report_1", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("report_1")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if svc.updateIn.Title != nil {
		t.Fatalf("omitted title must arrive nil: %+v", svc.updateIn)
	}
}

func TestReportHandler_Update_StatusForwarded(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, _ := newJSONCtx(t, http.MethodPut, "/api/reports/report_1", `{"status":"Resolved"}`)
	c.SetParamNames("id")
	c.SetParamValues("report_1")
	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if svc.updateIn.Status == nil || *svc.updateIn.Status != "Resolved" {
		t.Fatalf("status not forwarded: %+v", svc.updateIn)
	}
}

// ---------------------------------------------------------------------------
// Update: multipart presence semantics
// ---------------------------------------------------------------------------

func TestReportHandler_Update_MultipartPresence(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, assets, _ := newReportHandlerSetup(svc)

	c, _ := newMultipartCtx(t, map[string]string{
		"title": "",
	}, "replacement.jpg")
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.Update(c); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	// The title key exists with an empty value: that is a clear, not an omit.
	if svc.updateIn.Title == nil || *svc.updateIn.Title != "" {
		t.Fatalf("present-but-empty form key lost: %+v", svc.updateIn)
	}
	if svc.updateIn.Description != nil {
		t.Fatalf("absent form key must stay nil: %+v", svc.updateIn)
	}
	if svc.updateIn.Image == nil || *svc.updateIn.Image != "uploads/replacement.jpg" {
		t.Fatalf("replacement image not forwarded: %+v", svc.updateIn)
	}
	if len(assets.stored) != 1 {
		t.Fatalf("replacement not stored: %v", assets.stored)
	}
}

// A rejected update must release the replacement image it already stored.
func TestReportHandler_Update_RejectedReplacementIsReleased(t *testing.T) {
	svc := &stubReportService{err: domain.ErrForbidden}
	h, _, releaser := newReportHandlerSetup(svc)

	c, _ := newMultipartCtx(t, map[string]string{
		"title": "hijack attempt",
	}, "sneaky.jpg")
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(releaser.refs) != 1 || releaser.refs[0] != "uploads/sneaky.jpg" {
		t.Fatalf("rejected replacement not released: %v", releaser.refs)
	}
}

// ---------------------------------------------------------------------------
// UpdateStatus
// ---------------------------------------------------------------------------

func TestReportHandler_UpdateStatus(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, rec := newJSONCtx(t, http.MethodPut, "/api/reports/report_1/status", `{"status":"In Progress"}`)
	c.Set("role", domain.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.status != "In Progress" {
		t.Fatalf("status not forwarded: %q", svc.status)
	}
}

func TestReportHandler_UpdateStatus_UnknownStatus(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, _ := newJSONCtx(t, http.MethodPut, "/api/reports/report_1/status", `{"status":"Escalated"}`)
	c.Set("role", domain.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	err := h.UpdateStatus(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Get / Delete
// ---------------------------------------------------------------------------

func TestReportHandler_Get(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, rec := newJSONCtx(t, http.MethodGet, "/api/reports/report_1", "")
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.Get(c); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Water on Main St") {
		t.Fatalf("report missing from response: %s", rec.Body.String())
	}
}

func TestReportHandler_Get_NotFound(t *testing.T) {
	svc := &stubReportService{err: domain.ErrReportNotFound}
	h, _, _ := newReportHandlerSetup(svc)

	c, _ := newJSONCtx(t, http.MethodGet, "/api/reports/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.Get(c); !errors.Is(err, domain.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestReportHandler_Delete(t *testing.T) {
	svc := &stubReportService{report: sampleReport()}
	h, _, _ := newReportHandlerSetup(svc)

	c, rec := newJSONCtx(t, http.MethodDelete, "/api/reports/report_1", "")
	c.SetParamNames("id")
	c.SetParamValues("report_1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.deleted != "report_1" {
		t.Fatalf("id not forwarded: %q", svc.deleted)
	}
	if !strings.Contains(rec.Body.String(), "report removed") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

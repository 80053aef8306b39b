package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/floodwatch/flood-report-api/internal/api/metrics"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

// ReportHandler handles HTTP requests for report operations. It owns the
// translation between wire payloads (JSON or multipart) and the
// presence-sensitive service DTOs.
type ReportHandler struct {
	service  ports.ReportService
	assets   ports.AssetStore
	releaser ports.AssetReleaser
}

func NewReportHandler(service ports.ReportService, assets ports.AssetStore, releaser ports.AssetReleaser) *ReportHandler {
	return &ReportHandler{service: service, assets: assets, releaser: releaser}
}

// Create handles POST /api/reports (multipart: title, description,
// optional image file).
//
// @Summary      Submit a new flood report
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title        formData  string  true   "Report title"
// @Param        description  formData  string  true   "Report description"
// @Param        image        formData  file    false  "Photo of the incident"
// @Success      201  {object}  domain.Report
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/reports [post]
func (h *ReportHandler) Create(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	in := ports.CreateReportInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
	}

	if fh, err := c.FormFile("image"); err == nil {
		ref, err := h.storeUpload(c, fh)
		if err != nil {
			return err
		}
		in.Image = ref
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}

	report, err := h.service.Create(c.Request().Context(), ident, in)
	if err != nil {
		// The upload landed before authorization/validation; don't orphan it.
		if in.Image != "" {
			h.releaser.Enqueue(in.Image)
		}
		return err
	}

	metrics.ReportsCreatedTotal.WithLabelValues(strconv.FormatBool(in.Image != "")).Inc()
	return c.JSON(http.StatusCreated, report)
}

// List handles GET /api/reports — all reports, newest first.
//
// @Summary      List all reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Report
// @Failure      401  {object}  map[string]string
// @Router       /api/reports [get]
func (h *ReportHandler) List(c echo.Context) error {
	reports, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// ListMine handles GET /api/reports/my — the caller's reports, newest first.
//
// @Summary      List the caller's reports
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Report
// @Failure      401  {object}  map[string]string
// @Router       /api/reports/my [get]
func (h *ReportHandler) ListMine(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	reports, err := h.service.ListByOwner(c.Request().Context(), ident)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// Get handles GET /api/reports/:id.
//
// @Summary      Get a report by id
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report id"
// @Success      200  {object}  domain.Report
// @Failure      404  {object}  map[string]string
// @Router       /api/reports/{id} [get]
func (h *ReportHandler) Get(c echo.Context) error {
	report, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// Update handles PUT /api/reports/:id. Accepts JSON (pointer fields carry
// the omitted-vs-empty distinction) or multipart (form-key presence plus an
// optional replacement image). Only fields present in the payload change.
//
// @Summary      Update a report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Report id"
// @Param        body  body      updateReportRequest  true  "Fields to change"
// @Success      200   {object}  domain.Report
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/reports/{id} [put]
func (h *ReportHandler) Update(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var in ports.UpdateReportInput
	var newImage string

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		in, newImage, err = h.bindMultipartUpdate(c)
		if err != nil {
			return err
		}
	} else {
		var req updateReportRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		in = ports.UpdateReportInput{
			Title:       req.Title,
			Description: req.Description,
			Status:      req.Status,
		}
	}

	report, err := h.service.Update(c.Request().Context(), ident, c.Param("id"), in)
	if err != nil {
		if newImage != "" {
			h.releaser.Enqueue(newImage)
		}
		return err
	}

	if in.Status != nil {
		metrics.StatusTransitionsTotal.WithLabelValues(*in.Status).Inc()
	}
	return c.JSON(http.StatusOK, report)
}

// UpdateStatus handles PUT /api/reports/:id/status — the admin triage
// operation. The route sits behind the RBAC middleware; the service checks
// the role again so the rule holds without it.
//
// @Summary      Change a report's status
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Report id"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Report
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/reports/{id}/status [put]
func (h *ReportHandler) UpdateStatus(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	report, err := h.service.UpdateStatus(c.Request().Context(), ident, c.Param("id"), req.Status)
	if err != nil {
		return err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(req.Status).Inc()
	return c.JSON(http.StatusOK, report)
}

// Delete handles DELETE /api/reports/:id.
//
// @Summary      Delete a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Report id"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/reports/{id} [delete]
func (h *ReportHandler) Delete(c echo.Context) error {
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), ident, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "report removed"})
}

// bindMultipartUpdate reads field presence from the multipart form: a form
// key that exists selects the field even when its value is empty. A file
// part named "image" is stored immediately and its reference returned so
// the caller can release it if the update is rejected.
func (h *ReportHandler) bindMultipartUpdate(c echo.Context) (ports.UpdateReportInput, string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return ports.UpdateReportInput{}, "", echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var in ports.UpdateReportInput
	if vals, ok := form.Value["title"]; ok && len(vals) > 0 {
		in.Title = &vals[0]
	}
	if vals, ok := form.Value["description"]; ok && len(vals) > 0 {
		in.Description = &vals[0]
	}
	if vals, ok := form.Value["status"]; ok && len(vals) > 0 {
		in.Status = &vals[0]
	}

	var newImage string
	if fh, err := c.FormFile("image"); err == nil {
		ref, err := h.storeUpload(c, fh)
		if err != nil {
			return ports.UpdateReportInput{}, "", err
		}
		newImage = ref
		in.Image = &newImage
	} else if !errors.Is(err, http.ErrMissingFile) {
		return ports.UpdateReportInput{}, "", echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}

	return in, newImage, nil
}

func (h *ReportHandler) storeUpload(c echo.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}
	defer src.Close()

	ref, err := h.assets.Store(c.Request().Context(), fh.Filename, src)
	if err != nil {
		return "", err
	}
	return ref, nil
}

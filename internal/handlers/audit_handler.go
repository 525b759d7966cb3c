package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/middleware"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/internal/services"
)

type AuditHandler struct {
	auditService     *services.AuditService
	integrityService *services.IntegrityService
	exportService    *services.ExportService
}

func NewAuditHandler(auditService *services.AuditService, integrityService *services.IntegrityService, exportService *services.ExportService) *AuditHandler {
	return &AuditHandler{
		auditService:     auditService,
		integrityService: integrityService,
		exportService:    exportService,
	}
}

func auditFilter(c *gin.Context) ledger.Filter {
	return ledger.Filter{
		EntityType: strings.TrimSpace(c.Query("entityType")),
		EntityID:   strings.TrimSpace(c.Query("entityId")),
		Action:     strings.TrimSpace(c.Query("action")),
	}
}

// parseLimit treats anything that is not a positive number as the default
func parseLimit(raw string) int {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil && !math.IsInf(n, 1) {
		return ledger.DefaultListLimit
	}
	if math.IsNaN(n) || n < 1 {
		return ledger.DefaultListLimit
	}
	if n > ledger.MaxListLimit {
		return ledger.MaxListLimit
	}
	return int(n)
}

// @Summary List Audit Entries
// @Description Newest entries first together with the chain integrity status. The read itself is recorded as AUDIT_VIEWED.
// @Tags Audit
// @Produce json
// @Param entityType query string false "customer, loan_application or system"
// @Param entityId query string false "Entity ID"
// @Param action query string false "Action name, e.g. LOAN_SCORED"
// @Param limit query int false "Max entries (1-200)" default(50)
// @Param X-Actor-Id header string false "Acting user when no bearer token is sent"
// @Success 200 {object} services.AuditLogView
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) Index(c *gin.Context) {
	view, err := h.auditService.ViewLog(c.Request.Context(), middleware.GetActor(c), auditFilter(c), parseLimit(c.Query("limit")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Verify Audit Chain
// @Description Replays the whole chain from genesis and returns the result
// @Tags Audit
// @Produce json
// @Success 200 {object} services.IntegrityStatus
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /audit/verify [get]
func (h *AuditHandler) Verify(c *gin.Context) {
	status, err := h.integrityService.FullVerify(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary Export Audit Entries (XLSX)
// @Description Download the filtered listing as a spreadsheet. Recorded as AUDIT_EXPORTED.
// @Tags Audit
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param entityType query string false "Entity type"
// @Param entityId query string false "Entity ID"
// @Param action query string false "Action name"
// @Param limit query int false "Max entries (1-200)" default(50)
// @Success 200 {file} file "audit_log.xlsx"
// @Security BearerAuth
// @Router /audit/export.xlsx [get]
func (h *AuditHandler) ExportXLSX(c *gin.Context) {
	h.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", h.exportService.AuditXLSX)
}

// @Summary Export Audit Entries (CSV)
// @Description Download the filtered listing as CSV. Recorded as AUDIT_EXPORTED.
// @Tags Audit
// @Produce text/csv
// @Param entityType query string false "Entity type"
// @Param entityId query string false "Entity ID"
// @Param action query string false "Action name"
// @Param limit query int false "Max entries (1-200)" default(50)
// @Success 200 {file} file "audit_log.csv"
// @Security BearerAuth
// @Router /audit/export.csv [get]
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	h.export(c, "csv", "text/csv", h.exportService.AuditCSV)
}

type entryExporter func(ctx context.Context, entries []models.AuditEntry) ([]byte, string, error)

func (h *AuditHandler) export(c *gin.Context, format, contentType string, render entryExporter) {
	ctx := c.Request.Context()
	filter := auditFilter(c)

	entries, err := h.auditService.List(ctx, filter, parseLimit(c.Query("limit")))
	if err != nil {
		respondError(c, err)
		return
	}

	data, filename, err := render(ctx, entries)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.RecordExport(ctx, middleware.GetActor(c), format, filter, len(entries))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}

// @Summary Integrity Certificate (PDF)
// @Description Verifies the chain and renders the result as a PDF. Recorded as AUDIT_EXPORTED.
// @Tags Audit
// @Produce application/pdf
// @Success 200 {file} file "audit_integrity.pdf"
// @Failure 503 {object} map[string]string
// @Security BearerAuth
// @Router /audit/integrity.pdf [get]
func (h *AuditHandler) IntegrityPDF(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.auditService.Verify(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	data, filename, err := h.exportService.IntegrityPDF(ctx, status)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.RecordExport(ctx, middleware.GetActor(c), "pdf", ledger.Filter{}, int(status.Checked))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// @Summary List Chain Archives
// @Description Stored XLSX snapshots of the full chain, oldest first
// @Tags Audit
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit/archives [get]
func (h *AuditHandler) Archives(c *gin.Context) {
	paths, err := h.exportService.Archives()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archives": paths})
}

// @Summary Download Chain Archive
// @Tags Audit
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param path path string true "Archive path as listed"
// @Success 200 {file} file "audit_chain.xlsx"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /audit/archives/{path} [get]
func (h *AuditHandler) DownloadArchive(c *gin.Context) {
	f, err := h.exportService.OpenArchive(c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", services.ErrUnavailable, err))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", f, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, info.Name()),
	})
}

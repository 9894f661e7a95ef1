package handler

import (
	"strconv"
	"time"

	"yield-vault-engine/internal/adapter/http/dto"
	"yield-vault-engine/internal/core/domain"
	"yield-vault-engine/internal/core/ports"
	"yield-vault-engine/pkg/apperror"
	"yield-vault-engine/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler exposes the audit trail and compliance reports to operators.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// Query handles GET /api/v1/admin/audit. Filters come in as query params;
// absent params match everything.
func (h *AuditHandler) Query(c *gin.Context) {
	q := domain.AuditQuery{
		Actor:    c.Query("actor"),
		Action:   c.Query("action"),
		Category: domain.AuditCategory(c.Query("category")),
	}

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperror.Validation("from must be RFC 3339"))
			return
		}
		q.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.Error(c, apperror.Validation("to must be RFC 3339"))
			return
		}
		q.To = t
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.Error(c, apperror.Validation("limit must be a non-negative integer"))
			return
		}
		q.Limit = n
	}

	entries := h.auditSvc.Query(c.Request.Context(), q)
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{
			ID:        e.ID,
			Actor:     e.Actor,
			Action:    e.Action,
			Category:  string(e.Category),
			Payload:   e.Payload,
			Success:   e.Success,
			Reason:    e.Reason,
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Verified:  e.Verified,
			AnchorRef: e.AnchorRef,
		})
	}
	response.OK(c, out)
}

// GenerateReport handles POST /api/v1/admin/audit/reports.
func (h *AuditHandler) GenerateReport(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		response.Error(c, apperror.Validation("from must be RFC 3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		response.Error(c, apperror.Validation("to must be RFC 3339"))
		return
	}

	report, err := h.auditSvc.GenerateReport(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toReportResponse(report))
}

// GetReport handles GET /api/v1/admin/audit/reports/:id.
func (h *AuditHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid report id"))
		return
	}

	report, ok := h.auditSvc.GetReport(c.Request.Context(), id)
	if !ok {
		response.Error(c, apperror.ErrReportNotFound(id.String()))
		return
	}
	response.OK(c, toReportResponse(report))
}

func toReportResponse(r *domain.ComplianceReport) dto.ReportResponse {
	byCategory := make(map[string]int64, len(r.ByCategory))
	for cat, n := range r.ByCategory {
		byCategory[string(cat)] = n
	}
	return dto.ReportResponse{
		ID:           r.ID.String(),
		From:         r.From.Format(time.RFC3339),
		To:           r.To.Format(time.RFC3339),
		TotalEntries: r.TotalEntries,
		Succeeded:    r.Succeeded,
		Failed:       r.Failed,
		ByCategory:   byCategory,
		Finalized:    r.Finalized,
		GeneratedAt:  r.GeneratedAt.Format(time.RFC3339),
	}
}

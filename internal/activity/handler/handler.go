// Package handler exposes the activity event HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"sales_portal_backend/internal/activity/domain"
	"sales_portal_backend/internal/activity/service"
	"sales_portal_backend/internal/activity/transport"
	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/platform/httpkit"
	"sales_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the event recording routes (authenticated).
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/call", h.RecordCall)
	group.POST("/appointment", h.RecordAppointment)
	group.POST("/closing", h.RecordClosing)
	group.GET("/recent", h.Recent)
	group.DELETE("/:kind/:id", httpkit.RequireRole(string(authdomain.RoleAdmin)), h.Delete)
}

func (h *Handler) RecordCall(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CallEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	outcome := domain.CallOutcome(req.Outcome)
	if !outcome.IsValid() {
		httpkit.Error(c, http.StatusBadRequest, "unknown call outcome", map[string]string{"outcome": req.Outcome})
		return
	}

	if !h.checkLeadAccess(c, id, req.LeadID) {
		return
	}

	event, err := h.svc.RecordCall(c.Request.Context(), service.RecordCallInput{
		UserID:     id.UserID(),
		LeadID:     req.LeadID,
		OccurredAt: req.Datetime,
		ContactRef: req.ContactRef,
		Outcome:    outcome,
		Notes:      req.Notes,
		NextCallAt: req.NextCallAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToCallResponse(event))
}

func (h *Handler) RecordAppointment(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.AppointmentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	apptType := domain.AppointmentType(req.Type)
	result := domain.AppointmentResult(req.Result)
	if !apptType.IsValid() || !result.IsValid() {
		httpkit.Error(c, http.StatusBadRequest, "unknown appointment type or result", nil)
		return
	}

	if !h.checkLeadAccess(c, id, req.LeadID) {
		return
	}

	event, err := h.svc.RecordAppointment(c.Request.Context(), service.RecordAppointmentInput{
		UserID:     id.UserID(),
		LeadID:     req.LeadID,
		Type:       apptType,
		Result:     result,
		OccurredAt: req.Datetime,
		Notes:      req.Notes,
		Location:   req.Location,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToAppointmentResponse(event))
}

func (h *Handler) RecordClosing(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.ClosingEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if !h.checkLeadAccess(c, id, req.LeadID) {
		return
	}

	event, err := h.svc.RecordClosing(c.Request.Context(), service.RecordClosingInput{
		UserID:          id.UserID(),
		LeadID:          req.LeadID,
		OccurredAt:      req.Datetime,
		Units:           req.Units,
		ProductCategory: req.ProductCategory,
		Notes:           req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToClosingResponse(event))
}

func (h *Handler) Recent(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	events, err := h.svc.Recent(c.Request.Context(), id.UserID(), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToRecentResponses(events))
}

func (h *Handler) Delete(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid event id", nil)
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id.UserID(), c.Param("kind"), eventID)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) checkLeadAccess(c *gin.Context, id httpkit.Identity, leadID *int64) bool {
	if leadID == nil {
		return true
	}
	if _, err := h.svc.AccessibleLead(c.Request.Context(), *leadID, id.UserID(), id.Role(), id.TeamID()); err != nil {
		httpkit.HandleError(c, err)
		return false
	}
	return true
}

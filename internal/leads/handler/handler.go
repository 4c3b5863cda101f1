// Package handler exposes the leads HTTP API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/internal/leads/funnel"
	"sales_portal_backend/internal/leads/repository"
	"sales_portal_backend/internal/leads/service"
	"sales_portal_backend/internal/leads/transport"
	"sales_portal_backend/platform/httpkit"
	"sales_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc    *service.Service
	engine *funnel.Engine
	val    *validator.Validator
}

func New(svc *service.Service, engine *funnel.Engine, val *validator.Validator) *Handler {
	return &Handler{svc: svc, engine: engine, val: val}
}

// RegisterRoutes mounts the leads routes on an authenticated group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/funnel", h.Funnel)
	group.GET("/calendar", h.Calendar)
	group.GET("/:id", h.Get)
	group.PATCH("/:id", h.Update)
	group.DELETE("/:id", httpkit.RequireRole(string(authdomain.RoleAdmin)), h.Delete)
	group.POST("/:id/transition", h.Transition)
	group.GET("/:id/history", h.History)
}

func (h *Handler) Create(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.Create(c.Request.Context(), service.CreateLeadInput{
		OwnerUserID: id.UserID(),
		TeamID:      id.TeamID(),
		FullName:    req.FullName,
		Phone:       req.Phone,
		Email:       req.Email,
		Tags:        req.Tags,
		Note:        req.Note,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToLeadResponse(lead))
}

func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	params := repository.ListParams{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !status.IsValid() {
			httpkit.Error(c, http.StatusBadRequest, "unknown status", nil)
			return
		}
		params.Status = &status
	}

	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
		// Unscoped; optional narrowing below.
		if raw := c.Query("userId"); raw != "" {
			if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				params.OwnerUserID = &userID
			}
		} else if raw := c.Query("teamId"); raw != "" {
			if teamID, err := strconv.ParseInt(raw, 10, 64); err == nil {
				params.TeamID = &teamID
			}
		}
	case authdomain.RoleTeamleiter:
		params.TeamID = id.TeamID()
		if params.TeamID == nil {
			userID := id.UserID()
			params.OwnerUserID = &userID
		}
	default:
		userID := id.UserID()
		params.OwnerUserID = &userID
	}

	leads, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponses(leads))
}

func (h *Handler) Get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !canAccessLead(id, lead) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *Handler) Update(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !canAccessLead(id, lead) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	updated, err := h.svc.UpdateDetails(c.Request.Context(), leadID, repository.UpdateDetailsParams{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		Tags:     req.Tags,
		Note:     req.Note,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(updated))
}

func (h *Handler) Delete(c *gin.Context) {
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), leadID)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) Transition(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	toStatus := domain.Status(req.ToStatus)
	if !toStatus.IsValid() {
		httpkit.Error(c, http.StatusBadRequest, "unknown status", map[string]string{"toStatus": req.ToStatus})
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !canAccessLead(id, lead) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	actorID := id.UserID()
	entry, err := h.svc.ApplyStatusTransition(c.Request.Context(), service.TransitionInput{
		LeadID:    leadID,
		ToStatus:  toStatus,
		ActorID:   &actorID,
		Reason:    req.Reason,
		Meta:      req.Meta,
		ChangedAt: req.ChangedAt,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToHistoryResponse(entry))
}

func (h *Handler) History(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.Get(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if !canAccessLead(id, lead) {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	entries, err := h.svc.History(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToHistoryResponses(entries))
}

// Funnel serves the funnel KPI report for the caller's allowed scope.
func (h *Handler) Funnel(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	scope, ok := resolveScope(c, id)
	if !ok {
		return
	}

	window, ok := resolveWindow(c)
	if !ok {
		return
	}

	result, err := h.engine.Calculate(c.Request.Context(), scope, window)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Calendar(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	from, to := time.Now().AddDate(0, 0, -7), time.Now().AddDate(0, 1, 0)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid from timestamp", nil)
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid to timestamp", nil)
			return
		}
		to = parsed
	}

	params := repository.CalendarParams{From: from, To: to}
	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
	case authdomain.RoleTeamleiter:
		params.TeamID = id.TeamID()
	default:
		userID := id.UserID()
		params.OwnerUserID = &userID
	}

	entries, err := h.svc.Calendar(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCalendarResponses(entries))
}

// resolveScope maps the caller's role onto a funnel scope: starters see
// their own leads, team leads their team, admins anything they ask for.
func resolveScope(c *gin.Context, id httpkit.Identity) (funnel.Scope, bool) {
	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
		scope := funnel.Scope{}
		if raw := c.Query("userId"); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "invalid userId", nil)
				return funnel.Scope{}, false
			}
			scope.UserID = &userID
		} else if raw := c.Query("teamId"); raw != "" {
			teamID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				httpkit.Error(c, http.StatusBadRequest, "invalid teamId", nil)
				return funnel.Scope{}, false
			}
			scope.TeamID = &teamID
		}
		return scope, true
	case authdomain.RoleTeamleiter:
		if id.TeamID() == nil {
			userID := id.UserID()
			return funnel.Scope{UserID: &userID}, true
		}
		return funnel.Scope{TeamID: id.TeamID()}, true
	default:
		userID := id.UserID()
		return funnel.Scope{UserID: &userID}, true
	}
}

func resolveWindow(c *gin.Context) (funnel.Window, bool) {
	window := funnel.Window{}

	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid start timestamp", nil)
			return funnel.Window{}, false
		}
		window.Start = start
	} else {
		period := c.DefaultQuery("period", funnel.PeriodWeek)
		start, err := funnel.PeriodStart(period, time.Now())
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "unknown period", map[string]string{"period": period})
			return funnel.Window{}, false
		}
		window.Start = start
	}

	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid end timestamp", nil)
			return funnel.Window{}, false
		}
		window.End = &end
	}
	return window, true
}

func canAccessLead(id httpkit.Identity, lead domain.Lead) bool {
	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
		return true
	case authdomain.RoleTeamleiter:
		if lead.OwnerUserID == id.UserID() {
			return true
		}
		return id.TeamID() != nil && lead.TeamID != nil && *id.TeamID() == *lead.TeamID
	default:
		return lead.OwnerUserID == id.UserID()
	}
}

func parseLeadID(c *gin.Context) (int64, bool) {
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || leadID <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return 0, false
	}
	return leadID, true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

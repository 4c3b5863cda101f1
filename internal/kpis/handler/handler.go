// Package handler exposes the KPI HTTP API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	"sales_portal_backend/internal/kpis/service"
	"sales_portal_backend/internal/kpis/transport"
	"sales_portal_backend/internal/leads/funnel"
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

// RegisterRoutes mounts the KPI routes. Visibility management is admin-only.
func (h *Handler) RegisterRoutes(group, admin *gin.RouterGroup) {
	group.GET("/me", h.Me)
	group.GET("/user/:id", h.User)
	group.GET("/team", h.Team)
	group.GET("/funnel", h.Funnel)
	group.GET("/visibility", h.Visibility)
	admin.PUT("/kpis/visibility", h.SetVisibility)
}

func (h *Handler) Me(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	since, ok := h.resolvePeriod(c)
	if !ok {
		return
	}

	kpis, err := h.svc.UserKPIs(c.Request.Context(), id.UserID(), since)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, kpis)
}

// User serves another rep's scorecard; team leads are limited to their team.
func (h *Handler) User(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid user id", nil)
		return
	}
	since, ok := h.resolvePeriod(c)
	if !ok {
		return
	}

	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
	case authdomain.RoleTeamleiter:
		if userID != id.UserID() && !h.sameTeam(c, id, userID) {
			return
		}
	default:
		if userID != id.UserID() {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			return
		}
	}

	kpis, err := h.svc.UserKPIs(c.Request.Context(), userID, since)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, kpis)
}

func (h *Handler) Team(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	since, ok := h.resolvePeriod(c)
	if !ok {
		return
	}

	var teamID int64
	switch authdomain.Role(id.Role()) {
	case authdomain.RoleAdmin:
		parsed, err := strconv.ParseInt(c.Query("teamId"), 10, 64)
		if err != nil || parsed <= 0 {
			httpkit.Error(c, http.StatusBadRequest, "teamId is required", nil)
			return
		}
		teamID = parsed
	case authdomain.RoleTeamleiter:
		if id.TeamID() == nil {
			httpkit.Error(c, http.StatusBadRequest, "no team assigned", nil)
			return
		}
		teamID = *id.TeamID()
	default:
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	kpis, err := h.svc.TeamKPIs(c.Request.Context(), teamID, since)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, kpis)
}

// Funnel serves the funnel report under the KPI namespace with the same
// scope rules as the leads funnel route.
func (h *Handler) Funnel(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	scope, ok := h.resolveScope(c, id)
	if !ok {
		return
	}
	window, ok := h.resolveWindow(c)
	if !ok {
		return
	}

	result, err := h.engine.Calculate(c.Request.Context(), scope, window)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Visibility(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	role := id.Role()
	if id.HasRole(string(authdomain.RoleAdmin)) {
		if raw := c.Query("role"); raw != "" {
			role = raw
		}
	}

	kpis, err := h.svc.Visibility(c.Request.Context(), role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.VisibilityResponse{Role: role, KPIs: kpis})
}

func (h *Handler) SetVisibility(c *gin.Context) {
	var req transport.SetVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.SetVisibility(c.Request.Context(), req.Role, req.Key, req.Visible)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) resolvePeriod(c *gin.Context) (time.Time, bool) {
	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid start timestamp", nil)
			return time.Time{}, false
		}
		return start, true
	}

	period := c.DefaultQuery("period", funnel.PeriodWeek)
	start, err := h.svc.PeriodStart(period)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unknown period", map[string]string{"period": period})
		return time.Time{}, false
	}
	return start, true
}

func (h *Handler) resolveScope(c *gin.Context, id httpkit.Identity) (funnel.Scope, bool) {
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

func (h *Handler) resolveWindow(c *gin.Context) (funnel.Window, bool) {
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
		start, err := h.svc.PeriodStart(period)
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

// sameTeam verifies the requested user belongs to the caller's team; it
// writes the error response itself on failure.
func (h *Handler) sameTeam(c *gin.Context, id httpkit.Identity, userID int64) bool {
	if id.TeamID() == nil {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return false
	}
	member, err := h.svc.TeamMember(c.Request.Context(), userID)
	if httpkit.HandleError(c, err) {
		return false
	}
	if member.TeamID == nil || *member.TeamID != *id.TeamID() {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return false
	}
	return true
}

// Package handler exposes the admin HTTP API.
package handler

import (
	"net/http"
	"strconv"

	"sales_portal_backend/internal/admin/repository"
	"sales_portal_backend/internal/admin/service"
	"sales_portal_backend/internal/admin/transport"
	authtransport "sales_portal_backend/internal/auth/transport"
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

// RegisterRoutes mounts the admin routes; the group already enforces the
// admin role.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/users", h.ListUsers)
	group.GET("/users/pending", h.ListPendingUsers)
	group.POST("/users/:id/approve", h.ApproveUser)
	group.POST("/users/:id/activate", h.ActivateUser)
	group.POST("/users/:id/deactivate", h.DeactivateUser)
	group.PUT("/users/:id/role", h.SetRole)
	group.PUT("/users/:id/team", h.AssignTeam)
	group.POST("/teams", h.CreateTeam)
	group.GET("/teams", h.ListTeams)
	group.DELETE("/teams/:id", h.DeleteTeam)
	group.GET("/audit", h.AuditLog)
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponses(users))
}

func (h *Handler) ListPendingUsers(c *gin.Context) {
	users, err := h.svc.ListPendingUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponses(users))
}

func (h *Handler) ApproveUser(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	userID, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.svc.ApproveUser(c.Request.Context(), id.UserID(), userID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponse(user))
}

func (h *Handler) ActivateUser(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) DeactivateUser(c *gin.Context) {
	h.setActive(c, false)
}

func (h *Handler) setActive(c *gin.Context, active bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	userID, ok := parseID(c)
	if !ok {
		return
	}
	if !active && userID == id.UserID() {
		httpkit.Error(c, http.StatusBadRequest, "cannot deactivate yourself", nil)
		return
	}

	user, err := h.svc.SetUserActive(c.Request.Context(), id.UserID(), userID, active)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponse(user))
}

func (h *Handler) SetRole(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	userID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	user, err := h.svc.SetUserRole(c.Request.Context(), id.UserID(), userID, req.Role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponse(user))
}

func (h *Handler) AssignTeam(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	userID, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.AssignTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	user, err := h.svc.AssignTeam(c.Request.Context(), id.UserID(), userID, req.TeamID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, authtransport.ToUserResponse(user))
}

func (h *Handler) CreateTeam(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	team, err := h.svc.CreateTeam(c.Request.Context(), id.UserID(), req.Name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToTeamResponse(team))
}

func (h *Handler) ListTeams(c *gin.Context) {
	teams, err := h.svc.ListTeams(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToTeamResponses(teams))
}

func (h *Handler) DeleteTeam(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	teamID, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteTeam(c.Request.Context(), id.UserID(), teamID)) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) AuditLog(c *gin.Context) {
	params := repository.AuditListParams{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("objectType"); raw != "" {
		params.ObjectType = &raw
	}
	if raw := c.Query("actorId"); raw != "" {
		if actorID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.ActorID = &actorID
		}
	}

	entries, err := h.svc.AuditLog(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToAuditResponses(entries))
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
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

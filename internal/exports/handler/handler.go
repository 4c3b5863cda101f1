// Package handler exposes the admin export downloads.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"sales_portal_backend/internal/exports/service"
	"sales_portal_backend/internal/leads/domain"
	"sales_portal_backend/internal/leads/funnel"
	leadsrepo "sales_portal_backend/internal/leads/repository"
	"sales_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the export downloads on the admin-only group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/leads.csv", h.LeadsCSV)
	group.GET("/leads.xlsx", h.LeadsXLSX)
	group.GET("/kpis.csv", h.KPIsCSV)
	group.GET("/kpis.xlsx", h.KPIsXLSX)
}

func (h *Handler) LeadsCSV(c *gin.Context) {
	params, ok := leadParams(c)
	if !ok {
		return
	}
	data, err := h.svc.LeadsCSV(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	download(c, "leads.csv", "text/csv", data)
}

func (h *Handler) LeadsXLSX(c *gin.Context) {
	params, ok := leadParams(c)
	if !ok {
		return
	}
	data, err := h.svc.LeadsXLSX(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	download(c, "leads.xlsx", xlsxContentType, data)
}

func (h *Handler) KPIsCSV(c *gin.Context) {
	since, ok := resolveSince(c)
	if !ok {
		return
	}
	data, err := h.svc.KPIsCSV(c.Request.Context(), since)
	if httpkit.HandleError(c, err) {
		return
	}
	download(c, "kpis.csv", "text/csv", data)
}

func (h *Handler) KPIsXLSX(c *gin.Context) {
	since, ok := resolveSince(c)
	if !ok {
		return
	}
	data, err := h.svc.KPIsXLSX(c.Request.Context(), since)
	if httpkit.HandleError(c, err) {
		return
	}
	download(c, "kpis.xlsx", xlsxContentType, data)
}

func leadParams(c *gin.Context) (leadsrepo.ListParams, bool) {
	params := leadsrepo.ListParams{}
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !status.IsValid() {
			httpkit.Error(c, http.StatusBadRequest, "unknown status", nil)
			return leadsrepo.ListParams{}, false
		}
		params.Status = &status
	}
	if raw := c.Query("teamId"); raw != "" {
		teamID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid teamId", nil)
			return leadsrepo.ListParams{}, false
		}
		params.TeamID = &teamID
	}
	return params, true
}

func resolveSince(c *gin.Context) (time.Time, bool) {
	if raw := c.Query("start"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid start timestamp", nil)
			return time.Time{}, false
		}
		return since, true
	}

	period := c.DefaultQuery("period", funnel.PeriodMonth)
	since, err := funnel.PeriodStart(period, time.Now())
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "unknown period", map[string]string{"period": period})
		return time.Time{}, false
	}
	return since, true
}

func download(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

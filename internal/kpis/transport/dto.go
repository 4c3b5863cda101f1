// Package transport defines the KPI API DTOs.
package transport

type VisibilityResponse struct {
	Role string          `json:"role"`
	KPIs map[string]bool `json:"kpis"`
}

type SetVisibilityRequest struct {
	Role    string `json:"role" validate:"required"`
	Key     string `json:"key" validate:"required"`
	Visible bool   `json:"visible"`
}

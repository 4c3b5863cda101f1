// Package transport defines the admin API DTOs.
package transport

import (
	"time"

	"sales_portal_backend/internal/admin/repository"
)

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type SetRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type AssignTeamRequest struct {
	TeamID *int64 `json:"teamId"`
}

type TeamResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToTeamResponse(team repository.Team) TeamResponse {
	return TeamResponse{ID: team.ID, Name: team.Name, CreatedAt: team.CreatedAt}
}

func ToTeamResponses(teams []repository.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, team := range teams {
		out = append(out, ToTeamResponse(team))
	}
	return out
}

type AuditEntryResponse struct {
	ID          int64          `json:"id"`
	Action      string         `json:"action"`
	ActorUserID int64          `json:"actorUserId"`
	ObjectType  string         `json:"objectType"`
	ObjectID    int64          `json:"objectId"`
	Diff        map[string]any `json:"diff,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func ToAuditResponses(entries []repository.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, AuditEntryResponse{
			ID:          entry.ID,
			Action:      entry.Action,
			ActorUserID: entry.ActorUserID,
			ObjectType:  entry.ObjectType,
			ObjectID:    entry.ObjectID,
			Diff:        entry.Diff,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return out
}

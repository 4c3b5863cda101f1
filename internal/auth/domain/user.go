// Package domain contains the user and role model.
package domain

import "time"

// Role is a user's authorization level.
type Role string

const (
	// RoleStarter is a regular sales rep: sees only their own leads and KPIs.
	RoleStarter Role = "starter"
	// RoleTeamleiter is a team lead: sees the whole team.
	RoleTeamleiter Role = "teamleiter"
	// RoleAdmin has full access including user approval and exports.
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleStarter, RoleTeamleiter, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	TeamID       *int64
	IsApproved   bool
	IsActive     bool
	CreatedAt    time.Time
}

// FullName returns the display name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Command seed fills a development database with demo teams, users and a
// handful of leads walked through the funnel.
package main

import (
	"context"
	"fmt"
	"time"

	adminrepo "sales_portal_backend/internal/admin/repository"
	authdomain "sales_portal_backend/internal/auth/domain"
	authrepo "sales_portal_backend/internal/auth/repository"
	authservice "sales_portal_backend/internal/auth/service"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsrepo "sales_portal_backend/internal/leads/repository"
	leadsservice "sales_portal_backend/internal/leads/service"
	"sales_portal_backend/migrations"
	"sales_portal_backend/platform/config"
	"sales_portal_backend/platform/db"
	"sales_portal_backend/platform/events"
	"sales_portal_backend/platform/logger"
)

const demoPassword = "demo1234!"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg, migrations.FS); err != nil {
		panic("failed to run database migrations: " + err.Error())
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	users := authrepo.New(pool)
	authSvc := authservice.New(users, cfg, bus, log)
	teams := adminrepo.NewTeams(pool)
	leadSvc := leadsservice.New(leadsrepo.New(pool), bus, log)

	team, err := teams.Create(ctx, "Team Nord")
	if err != nil {
		panic("failed to create team: " + err.Error())
	}
	log.Info("created team", "id", team.ID, "name", team.Name)

	seedUser(ctx, log, authSvc, users, "admin@portal.test", "Ada", "Admin", authdomain.RoleAdmin, nil)
	seedUser(ctx, log, authSvc, users, "leiter@portal.test", "Lena", "Leiter", authdomain.RoleTeamleiter, &team.ID)
	rep := seedUser(ctx, log, authSvc, users, "rep@portal.test", "Robin", "Rep", authdomain.RoleStarter, &team.ID)

	seedLeads(ctx, log, leadSvc, rep)
	log.Info("seed complete", "password", demoPassword)
}

func seedUser(ctx context.Context, log *logger.Logger, svc *authservice.Service, users *authrepo.Repository,
	email, firstName, lastName string, role authdomain.Role, teamID *int64) authdomain.User {
	user, err := svc.Register(ctx, authservice.RegisterInput{
		Email:     email,
		Password:  demoPassword,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		panic("failed to register " + email + ": " + err.Error())
	}
	if _, err := users.SetApproved(ctx, user.ID, true); err != nil {
		panic("failed to approve " + email + ": " + err.Error())
	}
	if _, err := users.SetRole(ctx, user.ID, role); err != nil {
		panic("failed to set role for " + email + ": " + err.Error())
	}
	if teamID != nil {
		if _, err := users.SetTeam(ctx, user.ID, teamID); err != nil {
			panic("failed to assign team for " + email + ": " + err.Error())
		}
	}
	log.Info("created user", "email", email, "role", string(role))
	user.Role = role
	user.TeamID = teamID
	return user
}

// seedLeads creates a few leads in different funnel stages so the KPI
// dashboards have something to show.
func seedLeads(ctx context.Context, log *logger.Logger, svc *leadsservice.Service, owner authdomain.User) {
	walks := []struct {
		name   string
		stages []leadsdomain.Status
	}{
		{"Max Muster", nil},
		{"Erika Beispiel", []leadsdomain.Status{leadsdomain.StatusContactEstablished}},
		{"Hans Handel", []leadsdomain.Status{
			leadsdomain.StatusContactEstablished,
			leadsdomain.StatusFirstApptScheduled,
			leadsdomain.StatusFirstApptCompleted,
		}},
		{"Greta Gewinn", []leadsdomain.Status{
			leadsdomain.StatusContactEstablished,
			leadsdomain.StatusFirstApptScheduled,
			leadsdomain.StatusFirstApptCompleted,
			leadsdomain.StatusSecondApptScheduled,
			leadsdomain.StatusSecondApptCompleted,
			leadsdomain.StatusClosedWon,
		}},
		{"Vera Verloren", []leadsdomain.Status{leadsdomain.StatusClosedLost}},
	}

	for i, walk := range walks {
		phone := fmt.Sprintf("+49151234567%02d", i)
		lead, err := svc.Create(ctx, leadsservice.CreateLeadInput{
			OwnerUserID: owner.ID,
			TeamID:      owner.TeamID,
			FullName:    walk.name,
			Phone:       &phone,
			Tags:        []string{"demo"},
		})
		if err != nil {
			panic("failed to create lead " + walk.name + ": " + err.Error())
		}

		changedAt := lead.CreatedAt
		for _, stage := range walk.stages {
			changedAt = changedAt.Add(24 * time.Hour)
			if _, err := svc.ApplyStatusTransition(ctx, leadsservice.TransitionInput{
				LeadID:    lead.ID,
				ToStatus:  stage,
				ActorID:   &owner.ID,
				ChangedAt: &changedAt,
			}); err != nil {
				panic("failed to walk lead " + walk.name + ": " + err.Error())
			}
		}
		log.Info("created lead", "name", walk.name, "stages", len(walk.stages))
	}
}

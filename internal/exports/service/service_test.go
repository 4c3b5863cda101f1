package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	kpidomain "sales_portal_backend/internal/kpis/domain"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsrepo "sales_portal_backend/internal/leads/repository"

	"github.com/xuri/excelize/v2"
)

type fakeLeads struct {
	leads []leadsdomain.Lead
}

func (f *fakeLeads) List(_ context.Context, _ leadsrepo.ListParams) ([]leadsdomain.Lead, error) {
	return f.leads, nil
}

type fakeUsers struct {
	users []authdomain.User
}

func (f *fakeUsers) List(_ context.Context) ([]authdomain.User, error) {
	return f.users, nil
}

type fakeKPIs struct {
	kpis map[int64]kpidomain.UserKPIs
}

func (f *fakeKPIs) UserKPIs(_ context.Context, userID int64, _ time.Time) (kpidomain.UserKPIs, error) {
	return f.kpis[userID], nil
}

func testService() *Service {
	phone := "+4915112345678"
	return New(
		&fakeLeads{leads: []leadsdomain.Lead{{
			ID:            1,
			OwnerUserID:   10,
			FullName:      "Max Muster",
			Phone:         &phone,
			Tags:          []string{"messe", "hot"},
			CurrentStatus: leadsdomain.StatusContactEstablished,
		}}},
		&fakeUsers{users: []authdomain.User{
			{ID: 10, FirstName: "Anna", LastName: "Aalst", Role: authdomain.RoleStarter},
		}},
		&fakeKPIs{kpis: map[int64]kpidomain.UserKPIs{
			10: {CallsMade: 40, CallsAnswered: 10, PickupRate: 0.25},
		}},
	)
}

func TestLeadsCSV(t *testing.T) {
	data, err := testService().LeadsCSV(context.Background(), leadsrepo.ListParams{})
	if err != nil {
		t.Fatalf("LeadsCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	if records[0][0] != "id" || records[0][4] != "status" {
		t.Fatalf("unexpected header %v", records[0])
	}
	row := records[1]
	if row[1] != "Max Muster" || row[4] != "contact_established" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[7] != "messe;hot" {
		t.Fatalf("tags not joined: %q", row[7])
	}
}

func TestKPIsCSV(t *testing.T) {
	data, err := testService().KPIsCSV(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("KPIsCSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(records))
	}
	row := records[1]
	if row[1] != "Anna Aalst" || row[4] != "40" || row[6] != "0.25" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestLeadsXLSX(t *testing.T) {
	data, err := testService().LeadsXLSX(context.Background(), leadsrepo.ListParams{})
	if err != nil {
		t.Fatalf("LeadsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Leads")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if !strings.Contains(strings.Join(rows[1], ","), "Max Muster") {
		t.Fatalf("lead row missing: %v", rows[1])
	}
}

// Package service renders lead and KPI exports as CSV and XLSX.
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	authdomain "sales_portal_backend/internal/auth/domain"
	kpidomain "sales_portal_backend/internal/kpis/domain"
	leadsdomain "sales_portal_backend/internal/leads/domain"
	leadsrepo "sales_portal_backend/internal/leads/repository"

	"github.com/xuri/excelize/v2"
)

// Leads is the lead listing slice the exporters read.
type Leads interface {
	List(ctx context.Context, params leadsrepo.ListParams) ([]leadsdomain.Lead, error)
}

// Users lists the directory for the KPI summary.
type Users interface {
	List(ctx context.Context) ([]authdomain.User, error)
}

// KPIs computes one rep's scorecard.
type KPIs interface {
	UserKPIs(ctx context.Context, userID int64, since time.Time) (kpidomain.UserKPIs, error)
}

type Service struct {
	leads Leads
	users Users
	kpis  KPIs
}

func New(leads Leads, users Users, kpis KPIs) *Service {
	return &Service{leads: leads, users: users, kpis: kpis}
}

// exportBatchSize caps one export; the admin UI pages beyond this.
const exportBatchSize = 10000

var leadHeader = []string{
	"id", "full_name", "phone", "email", "status", "owner_user_id", "team_id",
	"tags", "note", "status_updated_at", "last_activity_at", "created_at",
}

func (s *Service) leadRows(ctx context.Context, params leadsrepo.ListParams) ([][]string, error) {
	params.Limit = exportBatchSize
	leads, err := s.leads.List(ctx, params)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, []string{
			strconv.FormatInt(lead.ID, 10),
			lead.FullName,
			derefString(lead.Phone),
			derefString(lead.Email),
			string(lead.CurrentStatus),
			strconv.FormatInt(lead.OwnerUserID, 10),
			formatID(lead.TeamID),
			strings.Join(lead.Tags, ";"),
			derefString(lead.Note),
			lead.StatusUpdatedAt.Format(time.RFC3339),
			lead.LastActivityAt.Format(time.RFC3339),
			lead.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

// LeadsCSV renders the lead list as CSV.
func (s *Service) LeadsCSV(ctx context.Context, params leadsrepo.ListParams) ([]byte, error) {
	rows, err := s.leadRows(ctx, params)
	if err != nil {
		return nil, err
	}
	return writeCSV(leadHeader, rows)
}

// LeadsXLSX renders the lead list as an XLSX workbook.
func (s *Service) LeadsXLSX(ctx context.Context, params leadsrepo.ListParams) ([]byte, error) {
	rows, err := s.leadRows(ctx, params)
	if err != nil {
		return nil, err
	}
	return writeXLSX("Leads", leadHeader, rows)
}

var kpiHeader = []string{
	"user_id", "name", "role", "team_id", "calls_made", "calls_answered", "pickup_rate",
	"first_appointments_set", "first_appt_rate", "second_appointments_set",
	"second_appt_rate", "closings", "units_total", "avg_units_per_closing",
}

func (s *Service) kpiRows(ctx context.Context, since time.Time) ([][]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(users))
	for _, user := range users {
		kpis, err := s.kpis.UserKPIs(ctx, user.ID, since)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []string{
			strconv.FormatInt(user.ID, 10),
			user.FullName(),
			string(user.Role),
			formatID(user.TeamID),
			strconv.Itoa(kpis.CallsMade),
			strconv.Itoa(kpis.CallsAnswered),
			formatRate(kpis.PickupRate),
			strconv.Itoa(kpis.FirstAppointmentsSet),
			formatRate(kpis.FirstApptRate),
			strconv.Itoa(kpis.SecondAppointmentsSet),
			formatRate(kpis.SecondApptRate),
			strconv.Itoa(kpis.Closings),
			formatRate(kpis.UnitsTotal),
			formatRate(kpis.AvgUnitsPerClosing),
		})
	}
	return rows, nil
}

// KPIsCSV renders the per-rep KPI summary as CSV.
func (s *Service) KPIsCSV(ctx context.Context, since time.Time) ([]byte, error) {
	rows, err := s.kpiRows(ctx, since)
	if err != nil {
		return nil, err
	}
	return writeCSV(kpiHeader, rows)
}

// KPIsXLSX renders the per-rep KPI summary as an XLSX workbook.
func (s *Service) KPIsXLSX(ctx context.Context, since time.Time) ([]byte, error) {
	rows, err := s.kpiRows(ctx, since)
	if err != nil {
		return nil, err
	}
	return writeXLSX("KPIs", kpiHeader, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

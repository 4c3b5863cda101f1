// Package domain defines the performance KPI aggregates.
package domain

// UserKPIs is the per-rep activity scorecard for one period. Rates fall back
// to 0 when their denominator is 0.
type UserKPIs struct {
	CallsMade             int     `json:"callsMade"`
	CallsAnswered         int     `json:"callsAnswered"`
	PickupRate            float64 `json:"pickupRate"`
	FirstAppointmentsSet  int     `json:"firstAppointmentsSet"`
	FirstApptRate         float64 `json:"firstApptRate"`
	SecondAppointmentsSet int     `json:"secondAppointmentsSet"`
	SecondApptRate        float64 `json:"secondApptRate"`
	Closings              int     `json:"closings"`
	UnitsTotal            float64 `json:"unitsTotal"`
	AvgUnitsPerClosing    float64 `json:"avgUnitsPerClosing"`
}

// MemberKPIs is one team member's scorecard with identity attached.
type MemberKPIs struct {
	UserID int64    `json:"userId"`
	Name   string   `json:"name"`
	KPIs   UserKPIs `json:"kpis"`
}

// TeamKPIs carries every member's scorecard plus the aggregated team totals.
// The total rates are recomputed from the summed counts, not averaged.
type TeamKPIs struct {
	TeamID  int64        `json:"teamId"`
	Members []MemberKPIs `json:"members"`
	Totals  UserKPIs     `json:"totals"`
}

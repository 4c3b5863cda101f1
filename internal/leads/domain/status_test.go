package domain

import "testing"

func TestSelfTransitionAlwaysAllowed(t *testing.T) {
	for _, status := range AllStatuses {
		if !IsTransitionAllowed(status, status) {
			t.Fatalf("expected self-transition to be allowed for %s", status)
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"cold to call scheduled", StatusNewCold, StatusCallScheduled, true},
		{"cold straight to contact", StatusNewCold, StatusContactEstablished, true},
		{"cold to lost", StatusNewCold, StatusClosedLost, true},
		{"contact to first appt pending", StatusContactEstablished, StatusFirstApptPending, true},
		{"contact back to call scheduled", StatusContactEstablished, StatusCallScheduled, true},
		{"pending to scheduled", StatusFirstApptPending, StatusFirstApptScheduled, true},
		{"first completed to second scheduled", StatusFirstApptCompleted, StatusSecondApptScheduled, true},
		{"second completed to won", StatusSecondApptCompleted, StatusClosedWon, true},

		{"cannot skip to second appt", StatusContactEstablished, StatusSecondApptScheduled, false},
		{"cannot close from contact", StatusContactEstablished, StatusClosedWon, false},
		{"cannot skip first appt", StatusNewCold, StatusFirstApptScheduled, false},
		{"won is terminal", StatusClosedWon, StatusClosedLost, false},
		{"lost is terminal", StatusClosedLost, StatusNewCold, false},
		{"no reopening won", StatusClosedWon, StatusContactEstablished, false},
		{"backwards from completed", StatusFirstApptCompleted, StatusContactEstablished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransitionAllowed(tt.from, tt.to); got != tt.want {
				t.Fatalf("IsTransitionAllowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestUnknownStatusNeverAllowed(t *testing.T) {
	if IsTransitionAllowed(Status("bogus"), StatusNewCold) {
		t.Fatal("expected unknown from-status to be rejected")
	}
	if IsTransitionAllowed(StatusNewCold, Status("bogus")) {
		t.Fatal("expected unknown to-status to be rejected")
	}
	if IsTransitionAllowed(Status("bogus"), Status("bogus")) {
		t.Fatal("expected unknown self-transition to be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, status := range AllStatuses {
		terminal := status == StatusClosedWon || status == StatusClosedLost
		if status.IsTerminal() != terminal {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, status.IsTerminal(), terminal)
		}
	}
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	err := &InvalidTransitionError{From: StatusContactEstablished, To: StatusClosedWon}
	want := "transition from contact_established to closed_won is not allowed"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

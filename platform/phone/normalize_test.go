package phone

import (
	"errors"
	"testing"
)

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"030 12345678", "+493012345678"},
		{" +49 151 23456789 ", "+4915123456789"},
		{"0151 23456789", "+4915123456789"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		got, err := NormalizeE164(tc.input)
		if err != nil {
			t.Fatalf("NormalizeE164(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeE164RejectsInvalidInput(t *testing.T) {
	for _, input := range []string{"not a number", "+49 1", "123"} {
		if _, err := NormalizeE164(input); err == nil {
			t.Fatalf("NormalizeE164(%q): expected error", input)
		}
	}
	if _, err := NormalizeE164("+49 1"); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

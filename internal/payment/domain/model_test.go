package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusInitiated, StatusPending, true},
		{StatusInitiated, StatusSuccess, true},
		{StatusInitiated, StatusFailed, true},
		{StatusInitiated, StatusExpired, true},
		{StatusInitiated, StatusRefunded, false},
		{StatusPending, StatusSuccess, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusExpired, true},
		{StatusPending, StatusInitiated, false},
		{StatusSuccess, StatusRefunded, true},
		{StatusSuccess, StatusFailed, false},
		{StatusSuccess, StatusPending, false},
		{StatusFailed, StatusSuccess, false},
		{StatusFailed, StatusPending, false},
		{StatusExpired, StatusPending, false},
		{StatusRefunded, StatusSuccess, false},
		{StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []Status{StatusFailed, StatusRefunded, StatusExpired}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []Status{StatusInitiated, StatusPending, StatusSuccess}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestParsePurpose(t *testing.T) {
	if p, ok := ParsePurpose("  Application_Fee "); !ok || p != PurposeApplicationFee {
		t.Fatalf("ParsePurpose normalization failed: %v %v", p, ok)
	}
	if _, ok := ParsePurpose("library_fine"); ok {
		t.Fatal("unknown purpose accepted")
	}
}

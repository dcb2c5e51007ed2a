package phase

import "testing"

func TestStateOf(t *testing.T) {
	cases := []struct {
		active  bool
		bets    int
		settled bool
		want    State
	}{
		{true, 0, false, Draft},
		{true, 3, false, Active},
		{false, 3, false, Inactive},
		{false, 0, false, Inactive},
		{false, 3, true, Settled},
		{true, 3, true, Settled},
	}
	for _, tc := range cases {
		if got := StateOf(tc.active, tc.bets, tc.settled); got != tc.want {
			t.Fatalf("StateOf(%v,%d,%v)=%s want %s", tc.active, tc.bets, tc.settled, got, tc.want)
		}
	}
}

func TestGuards(t *testing.T) {
	if !Draft.CanAcceptBets() || !Active.CanAcceptBets() || Inactive.CanAcceptBets() || Settled.CanAcceptBets() {
		t.Fatalf("CanAcceptBets mismatch")
	}
	if Settled.CanMutate() || Settled.CanActivate() || !Inactive.CanActivate() {
		t.Fatalf("settled phase must be immutable")
	}
}

package exposure

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func bet(number string, amount int64) Bet {
	s, err := slot.Parse(number)
	if err != nil {
		panic(err)
	}
	return Bet{Slot: s, Amount: d(amount)}
}

func TestAggregateSumsSignedAmounts(t *testing.T) {
	b := Aggregate([]Bet{bet("123", 500), bet("123", -200)})
	if b.Total(123).Cmp(d(300)) != 0 {
		t.Fatalf("total[123]=%s want 300", b.Total(123))
	}
	for n := 0; n < slot.Space; n++ {
		if n != 123 && !b.Total(n).IsZero() {
			t.Fatalf("total[%03d]=%s want 0", n, b.Total(n))
		}
	}
}

func TestAggregateKeepsReservedCodesOffTheBoard(t *testing.T) {
	b := Aggregate([]Bet{bet("001", 100), bet("ADJ", 1000), bet("ADJ", -250), bet("EXC", 40)})
	if b.NumberVolume().Cmp(d(100)) != 0 {
		t.Fatalf("number volume=%s want 100", b.NumberVolume())
	}
	if b.Adjustment.Cmp(d(750)) != 0 || b.ExcessAdjustment.Cmp(d(40)) != 0 {
		t.Fatalf("adj=%s exc=%s", b.Adjustment, b.ExcessAdjustment)
	}
	if b.Volume().Cmp(d(850)) != 0 {
		t.Fatalf("volume=%s want 850", b.Volume())
	}
}

func TestAggregateIsIdempotentAndOrderIndependent(t *testing.T) {
	bets := []Bet{bet("010", 5), bet("999", 7), bet("010", -2), bet("ADJ", 3)}
	first := Aggregate(bets)
	second := Aggregate(bets)
	reversed := Aggregate([]Bet{bets[3], bets[2], bets[1], bets[0]})
	if !reflect.DeepEqual(first.Rows(), second.Rows()) || !reflect.DeepEqual(first.Rows(), reversed.Rows()) {
		t.Fatalf("aggregate is not deterministic")
	}
	if len(first.Rows()) != slot.Space || first.Rows()[0].Number != "000" || first.Rows()[999].Number != "999" {
		t.Fatalf("rows must cover 000..999 in order")
	}
}

func TestEffectiveLimitFallbacks(t *testing.T) {
	l := Limits{PerNumber: map[int]decimal.Decimal{7: d(100)}}
	if l.Effective(7).Cmp(d(100)) != 0 {
		t.Fatalf("per-number limit ignored")
	}
	if l.Effective(8).Cmp(DefaultGlobalLimit) != 0 {
		t.Fatalf("default limit=%s want %s", l.Effective(8), DefaultGlobalLimit)
	}
	l.Global = d(2500)
	if l.Effective(8).Cmp(d(2500)) != 0 {
		t.Fatalf("global limit ignored")
	}
}

func TestExcessAndClear(t *testing.T) {
	bets := []Bet{bet("123", 6000)}
	b := Aggregate(bets)
	l := Limits{Global: d(5000)}

	if Excess(&b, l, 123).Cmp(d(1000)) != 0 {
		t.Fatalf("excess=%s want 1000", Excess(&b, l, 123))
	}

	plan := Clear(&b, l)
	if len(plan.Corrections) != 1 {
		t.Fatalf("corrections=%+v", plan.Corrections)
	}
	c := plan.Corrections[0]
	if c.Slot.String() != "123" || c.Amount.Cmp(d(-1000)) != 0 {
		t.Fatalf("correction=%+v", c)
	}

	after := Aggregate(append(bets, plan.Corrections...))
	if after.Total(123).Cmp(d(5000)) != 0 {
		t.Fatalf("total after clear=%s want 5000", after.Total(123))
	}
	if again := Clear(&after, l); !again.Empty() {
		t.Fatalf("second clear must be empty: %+v", again)
	}
}

func TestClearBringsEveryNumberToItsLimit(t *testing.T) {
	bets := []Bet{bet("001", 300), bet("002", 90), bet("003", 50), bet("003", 70), bet("004", -500)}
	l := Limits{PerNumber: map[int]decimal.Decimal{1: d(100), 3: d(100)}, Global: d(80)}
	b := Aggregate(bets)

	plan := Clear(&b, l)
	if plan.TotalReduction.Cmp(d(200+10+20)) != 0 {
		t.Fatalf("reduction=%s want 230", plan.TotalReduction)
	}
	after := Aggregate(append(bets, plan.Corrections...))
	for _, n := range []int{1, 2, 3} {
		if after.Total(n).Cmp(l.Effective(n)) != 0 {
			t.Fatalf("total[%d]=%s want %s", n, after.Total(n), l.Effective(n))
		}
	}
	if after.Total(4).Cmp(d(-500)) != 0 {
		t.Fatalf("numbers below limit must be untouched")
	}
}

func TestClearEmptyWhenNothingExceeds(t *testing.T) {
	b := Aggregate([]Bet{bet("500", 4999)})
	if plan := Clear(&b, Limits{}); !plan.Empty() || !plan.TotalReduction.IsZero() {
		t.Fatalf("plan=%+v want empty", plan)
	}
}

func TestReportOrderingsAndTotalExcess(t *testing.T) {
	bets := []Bet{bet("900", 5100), bet("100", 9000), bet("500", 7000), bet("EXC", -300)}
	b := Aggregate(bets)
	l := Limits{}

	rows := Report(&b, l)
	var got []string
	for _, r := range rows {
		got = append(got, r.Number)
	}
	if !reflect.DeepEqual(got, []string{"100", "500", "900"}) {
		t.Fatalf("manifest order=%v", got)
	}

	SortByExcess(rows)
	got = got[:0]
	for _, r := range rows {
		got = append(got, r.Number)
	}
	if !reflect.DeepEqual(got, []string{"100", "500", "900"}) {
		t.Fatalf("risk order=%v", got)
	}
	if rows[0].Excess.Cmp(d(4000)) != 0 || rows[0].Limit.Cmp(d(5000)) != 0 {
		t.Fatalf("row=%+v", rows[0])
	}

	// 4000 + 2000 + 100 - 300
	if TotalExcess(&b, l).Cmp(d(5800)) != 0 {
		t.Fatalf("total excess=%s want 5800", TotalExcess(&b, l))
	}
}

func TestSortByExcessTiesByNumber(t *testing.T) {
	rows := []ExcessRow{{Number: "300", Excess: d(5)}, {Number: "100", Excess: d(5)}, {Number: "200", Excess: d(9)}}
	SortByExcess(rows)
	if rows[0].Number != "200" || rows[1].Number != "100" || rows[2].Number != "300" {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestHotIgnoresReductions(t *testing.T) {
	hot := Hot([]Bet{bet("111", 100), bet("111", -90), bet("222", 50), bet("ADJ", 1000)}, 20)
	if len(hot) != 2 || hot[0].Number != "111" || hot[0].Total.Cmp(d(100)) != 0 {
		t.Fatalf("hot=%+v", hot)
	}
	if hot[0].PotentialPayout.Cmp(d(8000)) != 0 {
		t.Fatalf("payout=%s want 8000", hot[0].PotentialPayout)
	}
	if len(Hot([]Bet{bet("111", 1), bet("222", 2)}, 1)) != 1 {
		t.Fatalf("limit n not applied")
	}
}

func TestClampVolume(t *testing.T) {
	if ClampVolume(d(-20_000_000)).Cmp(VolumeFloor) != 0 {
		t.Fatalf("floor not applied")
	}
	if ClampVolume(d(-5)).Cmp(d(-5)) != 0 {
		t.Fatalf("values above the floor must pass through")
	}
}

func TestNetRebuildsBoard(t *testing.T) {
	b := Aggregate([]Bet{bet("123", 500), bet("123", -500), bet("007", 30), bet("ADJ", 9), bet("EXC", -4)})
	net := b.Net()
	if len(net) != 3 {
		t.Fatalf("net=%v want 3 positions", net)
	}
	again := Aggregate(net)
	if again.Total(7).Cmp(d(30)) != 0 || again.Adjustment.Cmp(d(9)) != 0 || again.ExcessAdjustment.Cmp(d(-4)) != 0 {
		t.Fatalf("rebuilt board differs: %v", again.Net())
	}
}

func TestPhaseVolumeCountsEverythingAndClamps(t *testing.T) {
	if v := PhaseVolume([]Bet{bet("123", 100), bet("ADJ", 50), bet("EXC", 5), bet("123", -20)}); v.Cmp(d(135)) != 0 {
		t.Fatalf("volume=%s want 135", v)
	}
	if v := PhaseVolume([]Bet{bet("ADJ", -20_000_000)}); !v.Equal(VolumeFloor) {
		t.Fatalf("volume=%s want floor", v)
	}
}

func TestCheckDrift(t *testing.T) {
	bets := []Bet{bet("123", 100), bet("456", -40)}
	if dr := CheckDrift(2, d(60), bets); dr.Drifted() {
		t.Fatalf("unexpected drift: %+v", dr)
	}
	if dr := CheckDrift(2, d(100), bets); !dr.Drifted() {
		t.Fatalf("volume drift not detected: %+v", dr)
	}
	if dr := CheckDrift(3, d(60), bets); !dr.Drifted() {
		t.Fatalf("count drift not detected: %+v", dr)
	}
}

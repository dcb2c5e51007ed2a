package slot

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		kind    Kind
		wantErr bool
	}{
		{"000", "000", KindDirect, false},
		{"123", "123", KindDirect, false},
		{"999", "999", KindDirect, false},
		{"ADJ", "ADJ", KindAdjustment, false},
		{"EXC", "EXC", KindExcess, false},
		{"12", "", 0, true},
		{"1234", "", 0, true},
		{"12a", "", 0, true},
		{"adj", "", 0, true},
		{"", "", 0, true},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Parse(%q) err=%v want ErrInvalid", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", tc.in, err)
		}
		if got.String() != tc.want || got.Kind() != tc.kind {
			t.Fatalf("Parse(%q)=%s/%d want %s/%d", tc.in, got, got.Kind(), tc.want, tc.kind)
		}
	}
}

func TestNormalizePadsShortNumbers(t *testing.T) {
	for in, want := range map[string]string{"7": "007", "42": "042", "420": "420", "EXC": "EXC"} {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("Normalize(%q)=%s want %s", in, got, want)
		}
	}
	if _, err := Normalize("1000"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Normalize(1000) err=%v want ErrInvalid", err)
	}
}

func TestIndex(t *testing.T) {
	if i, ok := MustDirect(57).Index(); !ok || i != 57 {
		t.Fatalf("index=%d ok=%v want 57 true", i, ok)
	}
	if _, ok := Adjustment().Index(); ok {
		t.Fatalf("ADJ must not have a board index")
	}
	if _, err := Direct(1000); err == nil {
		t.Fatalf("Direct(1000) must fail")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type row struct {
		Number Slot `json:"number"`
	}
	b, err := json.Marshal(row{Number: MustDirect(5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"number":"005"}` {
		t.Fatalf("json=%s", b)
	}
	var r row
	if err := json.Unmarshal([]byte(`{"number":"ADJ"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Number != Adjustment() {
		t.Fatalf("got %s want ADJ", r.Number)
	}
}

func TestScan(t *testing.T) {
	var s Slot
	if err := s.Scan([]byte("42")); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if s.String() != "042" {
		t.Fatalf("got %s want 042", s)
	}
	if err := s.Scan(12); err == nil {
		t.Fatalf("scan int must fail")
	}
}

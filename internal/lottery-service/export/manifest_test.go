package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
	"github.com/radieske/ova-3d-platform/internal/core/slot"
)

func TestWriteXLSX(t *testing.T) {
	board := exposure.Aggregate([]exposure.Bet{{Slot: slot.MustDirect(123), Amount: decimal.NewFromInt(6000)}})
	limits := exposure.Limits{}
	m := Manifest{
		PhaseName:   "Week 1",
		Excess:      exposure.Report(&board, limits),
		TotalExcess: exposure.TotalExcess(&board, limits).String(),
		Board:       board.Rows(),
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, m); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue(sheetExcess, "A3"); v != "123" {
		t.Fatalf("A3=%q want 123", v)
	}
	if v, _ := f.GetCellValue(sheetExcess, "D3"); v != "1000" {
		t.Fatalf("D3=%q want 1000", v)
	}
	rows, err := f.GetRows(sheetBoard)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != slot.Space+1 {
		t.Fatalf("board rows=%d want %d", len(rows), slot.Space+1)
	}
}

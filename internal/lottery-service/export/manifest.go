package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/radieske/ova-3d-platform/internal/core/exposure"
)

const (
	sheetExcess = "Excess"
	sheetBoard  = "Board"
)

// Manifest é o conteúdo exportado: excesso por número e o tabuleiro completo
type Manifest struct {
	PhaseName   string
	Excess      []exposure.ExcessRow
	TotalExcess string
	Board       []exposure.Row
}

// WriteXLSX grava o manifesto em duas planilhas (Excess e Board)
func WriteXLSX(w io.Writer, m Manifest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetExcess); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetBoard); err != nil {
		return err
	}

	f.SetCellValue(sheetExcess, "A1", "Phase")
	f.SetCellValue(sheetExcess, "B1", m.PhaseName)
	f.SetCellValue(sheetExcess, "A2", "Number")
	f.SetCellValue(sheetExcess, "B2", "Total")
	f.SetCellValue(sheetExcess, "C2", "Limit")
	f.SetCellValue(sheetExcess, "D2", "Excess")
	row := 3
	for _, r := range m.Excess {
		f.SetCellValue(sheetExcess, fmt.Sprintf("A%d", row), r.Number)
		f.SetCellValue(sheetExcess, fmt.Sprintf("B%d", row), r.Total.InexactFloat64())
		f.SetCellValue(sheetExcess, fmt.Sprintf("C%d", row), r.Limit.InexactFloat64())
		f.SetCellValue(sheetExcess, fmt.Sprintf("D%d", row), r.Excess.InexactFloat64())
		row++
	}
	f.SetCellValue(sheetExcess, fmt.Sprintf("A%d", row), "TOTAL EXCESS")
	f.SetCellValue(sheetExcess, fmt.Sprintf("D%d", row), m.TotalExcess)

	f.SetCellValue(sheetBoard, "A1", "Number")
	f.SetCellValue(sheetBoard, "B1", "Total")
	for i, r := range m.Board {
		f.SetCellValue(sheetBoard, fmt.Sprintf("A%d", i+2), r.Number)
		f.SetCellValue(sheetBoard, fmt.Sprintf("B%d", i+2), r.Total.InexactFloat64())
	}

	return f.Write(w)
}

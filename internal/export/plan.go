package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/alumtrack/internal/domain/allocation"
)

const (
	SheetPlan  = "Plan"
	SheetToBuy = "To buy"
)

// PlanXLSX формирует книгу с планом расхода партий и списком недостач.
func PlanXLSX(period string, res allocation.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPlan); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetToBuy); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	// План
	header := []any{"alloy_type", "purchase_id", "quantity_used_kg", "price_per_kg", "cost"}
	if err := f.SetSheetRow(SheetPlan, "A1", &header); err != nil {
		return nil, fmt.Errorf("plan header: %w", err)
	}
	row := 2
	for _, s := range res.Steps {
		line := []any{string(s.Grade), int64(s.LotID), s.Quantity, s.UnitCost, s.Cost}
		if err := setRow(f, SheetPlan, row, line); err != nil {
			return nil, err
		}
		row++
	}
	total := []any{fmt.Sprintf("Total (%s)", period), nil, nil, nil, res.TotalCost}
	if err := setRow(f, SheetPlan, row, total); err != nil {
		return nil, err
	}
	totalCell, _ := excelize.CoordinatesToCellName(5, row)
	firstCell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellStyle(SheetPlan, firstCell, totalCell, bold); err != nil {
		return nil, err
	}

	// Докупить
	header = []any{"alloy_type", "missing_quantity_kg"}
	if err := f.SetSheetRow(SheetToBuy, "A1", &header); err != nil {
		return nil, fmt.Errorf("to-buy header: %w", err)
	}
	for i, sf := range res.Shortfalls {
		if err := setRow(f, SheetToBuy, i+2, []any{string(sf.Grade), sf.Missing}); err != nil {
			return nil, err
		}
	}

	for _, sh := range []string{SheetPlan, SheetToBuy} {
		if err := f.SetRowStyle(sh, 1, 1, bold); err != nil {
			return nil, err
		}
		_ = f.SetColWidth(sh, "A", "E", 18)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, vals []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

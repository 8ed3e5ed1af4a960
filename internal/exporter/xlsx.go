package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"covidvax/pkg/contracts/domain"
)

// SheetName is the worksheet the XLSX export writes to
const SheetName = "cases"

const dateNumFmt = "yyyy-mm-dd"

// WriteCasesXLSX writes records as a workbook with a label header, real
// date cells and a totals row.
func WriteCasesXLSX(w io.Writer, records []domain.CaseRecord, totals domain.Totals) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	cols := domain.TableColumns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range records {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{r.Date, r.State, r.CasesUnvax, r.CasesPvax, r.CasesFvax, r.CasesBoost, r.TotalCases}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellStyle(SheetName, cell, cell, dateStyle); err != nil {
			return fmt.Errorf("failed to style row %d: %w", row, err)
		}
	}

	totalsRow := len(records) + 2
	cell, _ := excelize.CoordinatesToCellName(1, totalsRow)
	values := []interface{}{"Total", "", totals.CasesUnvax, totals.CasesPvax, totals.CasesFvax, totals.CasesBoost, totals.TotalCases}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}
	last, _ = excelize.CoordinatesToCellName(len(cols), totalsRow)
	if err := f.SetCellStyle(SheetName, cell, last, headerStyle); err != nil {
		return fmt.Errorf("failed to style totals: %w", err)
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "G", 16); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

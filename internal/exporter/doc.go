// Package exporter writes case records to downloadable formats.
//
// WriteCases produces CSV with a UTF-8 BOM so Excel picks up the encoding,
// and a header of column keys. WriteCasesXLSX produces a single-sheet
// workbook with column labels, date-formatted cells and a totals row.
//
//	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
//	err := exporter.WriteCases(w, view.Records)
package exporter

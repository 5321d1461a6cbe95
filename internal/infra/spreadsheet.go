package infra

// spreadsheet.go: reading bill numbers from uploaded workbooks and writing the
// associated-notes result workbook (xuri/excelize, encoding/csv for .csv uploads).

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ColumnReadOptions selects where bill numbers live in the upload.
type ColumnReadOptions struct {
	Column     string // spreadsheet letter, e.g. "A"
	HeaderRows int    // rows skipped before the first value
	Sheet      string // empty = first sheet
}

// ReadColumn returns the raw cell values of one column, from the first data row
// down to (not including) the first blank cell. filename decides the format:
// ".csv" is parsed as CSV, anything else as an OOXML workbook.
func ReadColumn(r io.Reader, filename string, opts ColumnReadOptions) ([]string, error) {
	col, err := excelize.ColumnNameToNumber(strings.ToUpper(strings.TrimSpace(opts.Column)))
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: columna invalida %q: %w", opts.Column, err)
	}
	idx := col - 1

	var rows [][]string
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		rows, err = readCSV(r)
	} else {
		rows, err = readWorkbook(r, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}

	var values []string
	for i := opts.HeaderRows; i < len(rows); i++ {
		row := rows[i]
		if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
			break
		}
		values = append(values, strings.TrimSpace(row[idx]))
	}
	return values, nil
}

func readWorkbook(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("spreadsheet: el libro no tiene hojas")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read csv: %w", err)
	}
	return rows, nil
}

// ResultRow is one line of the associated-notes result workbook.
type ResultRow struct {
	Bill      string
	HasNote   bool
	NoteIDs   []string
	NoteTotal string
}

const resultSheet = "Resultado"

// WriteNotesWorkbook renders rows as an .xlsx document into w.
func WriteNotesWorkbook(w io.Writer, rows []ResultRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultSheet); err != nil {
		return fmt.Errorf("spreadsheet: rename sheet: %w", err)
	}

	header := []any{"Factura", "Tiene nota crédito", "Notas", "Monto notas"}
	if err := f.SetSheetRow(resultSheet, "A1", &header); err != nil {
		return fmt.Errorf("spreadsheet: write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("spreadsheet: style: %w", err)
	}
	if err := f.SetCellStyle(resultSheet, "A1", "D1", bold); err != nil {
		return fmt.Errorf("spreadsheet: style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		tiene := "No"
		if row.HasNote {
			tiene = "Sí"
		}
		values := []any{row.Bill, tiene, strings.Join(row.NoteIDs, ", "), row.NoteTotal}
		if err := f.SetSheetRow(resultSheet, cell, &values); err != nil {
			return fmt.Errorf("spreadsheet: write row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(resultSheet, "A", "D", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("spreadsheet: write workbook: %w", err)
	}
	return nil
}

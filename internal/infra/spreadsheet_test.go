package infra

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, cells map[string]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "" {
		require.NoError(t, f.SetSheetName("Sheet1", sheet))
	} else {
		sheet = "Sheet1"
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	buf := &bytes.Buffer{}
	_, err := f.WriteTo(buf)
	require.NoError(t, err)
	return buf
}

func TestReadColumn_SaltaEncabezadosYParaEnVacio(t *testing.T) {
	wb := buildWorkbook(t, "", map[string]string{
		"B1": "Reporte de facturas",
		"B2": "Numero",
		"B3": "FE-1001",
		"B4": "1002",
		"B5": "",
		"B6": "1003",
	})

	values, err := ReadColumn(wb, "facturas.xlsx", ColumnReadOptions{Column: "B", HeaderRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"FE-1001", "1002"}, values)
}

func TestReadColumn_HojaConNombre(t *testing.T) {
	wb := buildWorkbook(t, "Facturas", map[string]string{"A1": "x", "A2": "y", "A3": "55"})

	values, err := ReadColumn(wb, "f.xlsx", ColumnReadOptions{Column: "a", HeaderRows: 2, Sheet: "Facturas"})
	require.NoError(t, err)
	assert.Equal(t, []string{"55"}, values)
}

func TestReadColumn_CSV(t *testing.T) {
	csv := "titulo,,\nfactura,valor\n 11-22 ,100\n33,200\n,300\n44,400\n"

	values, err := ReadColumn(strings.NewReader(csv), "lote.CSV", ColumnReadOptions{Column: "A", HeaderRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"11-22", "33"}, values)
}

func TestReadColumn_ColumnaInvalida(t *testing.T) {
	_, err := ReadColumn(strings.NewReader(""), "x.csv", ColumnReadOptions{Column: "1"})
	require.Error(t, err)
}

func TestReadColumn_ArchivoCorrupto(t *testing.T) {
	_, err := ReadColumn(strings.NewReader("not a zip"), "x.xlsx", ColumnReadOptions{Column: "A"})
	require.Error(t, err)
}

func TestWriteNotesWorkbook(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteNotesWorkbook(buf, []ResultRow{
		{Bill: "1001", HasNote: true, NoteIDs: []string{"7", "9"}, NoteTotal: "$ 20.000"},
		{Bill: "1002"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Resultado")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Factura", "Tiene nota crédito", "Notas", "Monto notas"}, rows[0])
	assert.Equal(t, []string{"1001", "Sí", "7, 9", "$ 20.000"}, rows[1])
	assert.Equal(t, "No", rows[2][1])
}

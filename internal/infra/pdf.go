package infra

// pdf.go: dashboard summary report using go-pdf/fpdf.
// A4 portrait: title and period, totals, one table per state and per faculty.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"garittea/internal/model"

	"github.com/go-pdf/fpdf"
)

// DashboardReport is the input of the PDF renderer.
type DashboardReport struct {
	Desde, Hasta string // YYYY-MM-DD, empty = unbounded
	GeneradoEn   time.Time
	Resumen      model.ResumenDashboard
}

// WriteDashboardPDF renders report into w.
func WriteDashboardPDF(w io.Writer, report DashboardReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr("Reporte de ventas a crédito"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Periodo: "+periodo(report.Desde, report.Hasta)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Generado: "+report.GeneradoEn.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW/2, 7, tr(fmt.Sprintf("Créditos: %d", report.Resumen.TotalCreditos)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 7, "Deuda total: "+model.FormatearMonto(report.Resumen.DeudaTotal), "1", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── By state ─────────────────────────────────────────────────────────────
	tableHeader(pdf, contentW, tr("Estado"))
	for _, fila := range report.Resumen.PorEstado {
		tableRow(pdf, contentW, tr(fila.Estado.String()), fila.Cantidad, model.FormatearMonto(fila.Monto))
	}
	pdf.Ln(4)

	// ── By faculty ───────────────────────────────────────────────────────────
	tableHeader(pdf, contentW, tr("Facultad"))
	for _, fila := range report.Resumen.PorFacultad {
		tableRow(pdf, contentW, tr(fila.Facultad), fila.Cantidad, model.FormatearMonto(fila.Monto))
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}

// SaveDashboardPDF writes the report to storagePath and returns the file path.
func SaveDashboardPDF(report DashboardReport, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("reporte_%s.pdf", report.GeneradoEn.Format("20060102_150405")))

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	if err := WriteDashboardPDF(f, report); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("pdf: close file: %w", err)
	}
	return filePath, nil
}

func tableHeader(pdf *fpdf.Fpdf, w float64, first string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(w*0.5, 6, first, "1", 0, "L", true, 0, "")
	pdf.CellFormat(w*0.2, 6, "Cantidad", "1", 0, "R", true, 0, "")
	pdf.CellFormat(w*0.3, 6, "Monto", "1", 1, "R", true, 0, "")
}

func tableRow(pdf *fpdf.Fpdf, w float64, label string, cantidad int64, monto string) {
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(w*0.5, 6, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(w*0.2, 6, fmt.Sprintf("%d", cantidad), "1", 0, "R", false, 0, "")
	pdf.CellFormat(w*0.3, 6, monto, "1", 1, "R", false, 0, "")
}

func periodo(desde, hasta string) string {
	switch {
	case desde == "" && hasta == "":
		return "todo el historial"
	case desde == "":
		return "hasta " + hasta
	case hasta == "":
		return "desde " + desde
	default:
		return desde + " a " + hasta
	}
}

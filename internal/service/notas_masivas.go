package service

import (
	"context"
	"io"
	"strconv"
	"strings"
	"unicode"

	"garittea/internal/dto"
	"garittea/internal/infra"
	"garittea/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// NotasMasivasService matches an uploaded list of bills against their credit notes.
type NotasMasivasService interface {
	Extraer(r io.Reader, nombre string) (facturas []string, invalidas int, err error)
	Procesar(ctx context.Context, r io.Reader, nombre string, w io.Writer) (*dto.NotasMasivasResponse, error)
}

type notasMasivasService struct {
	facturas FacturaService
	opts     infra.ColumnReadOptions
}

func NewNotasMasivasService(facturas FacturaService, opts infra.ColumnReadOptions) NotasMasivasService {
	return &notasMasivasService{facturas: facturas, opts: opts}
}

// Extraer reads the configured column and keeps only the digits of each cell.
// Cells without digits are counted as invalid; duplicates keep their first position.
func (s *notasMasivasService) Extraer(r io.Reader, nombre string) ([]string, int, error) {
	celdas, err := infra.ReadColumn(r, nombre, s.opts)
	if err != nil {
		return nil, 0, NewValidationError("archivo", "no se pudo leer el archivo: "+err.Error())
	}

	facturas := make([]string, 0, len(celdas))
	vistas := make(map[string]bool, len(celdas))
	invalidas := 0
	for _, celda := range celdas {
		numero := soloDigitos(celda)
		if numero == "" {
			invalidas++
			continue
		}
		if vistas[numero] {
			continue
		}
		vistas[numero] = true
		facturas = append(facturas, numero)
	}

	if len(facturas) == 0 {
		return nil, invalidas, NewValidationError("archivo", "el archivo no contiene números de factura válidos")
	}
	return facturas, invalidas, nil
}

// Procesar extracts the bills, performs one associated-notes lookup and writes
// the result workbook into w. Nothing is written when an error is returned.
func (s *notasMasivasService) Procesar(ctx context.Context, r io.Reader, nombre string, w io.Writer) (*dto.NotasMasivasResponse, error) {
	facturas, invalidas, err := s.Extraer(r, nombre)
	if err != nil {
		return nil, err
	}

	notas, err := s.facturas.NotasAsociadas(ctx, facturas)
	if err != nil {
		return nil, err
	}

	porFactura := make(map[string]model.FacturaNotas, len(notas))
	for _, n := range notas {
		porFactura[n.IDFactura] = n
	}

	resp := &dto.NotasMasivasResponse{Facturas: len(facturas), Invalidas: invalidas}
	filas := make([]infra.ResultRow, 0, len(facturas))
	for _, id := range facturas {
		fila := infra.ResultRow{Bill: id}
		if n, ok := porFactura[id]; ok && (n.TieneNota || len(n.NotasCredito) > 0) {
			fila.HasNote = true
			total := decimal.Zero
			for _, nota := range n.NotasCredito {
				fila.NoteIDs = append(fila.NoteIDs, strconv.FormatInt(nota.ID, 10))
				total = total.Add(nota.Amount)
			}
			fila.NoteTotal = model.FormatearMonto(total)
			resp.ConNota++
		} else {
			resp.SinNota++
		}
		filas = append(filas, fila)
	}

	if err := infra.WriteNotesWorkbook(w, filas); err != nil {
		return nil, err
	}
	log.Info().Int("facturas", resp.Facturas).Int("con_nota", resp.ConNota).Int("invalidas", invalidas).
		Msg("cruce masivo de notas credito")
	return resp, nil
}

func soloDigitos(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, s)
}

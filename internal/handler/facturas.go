package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"garittea/internal/apierror"
	"garittea/internal/dto"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	maxUploadBytes = 10 << 20
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type FacturasHandler struct {
	facturas service.FacturaService
	masivas  service.NotasMasivasService
}

func NewFacturasHandler(facturas service.FacturaService, masivas service.NotasMasivasService) *FacturasHandler {
	return &FacturasHandler{facturas: facturas, masivas: masivas}
}

// ActualizarEstado PATCH /v1/facturas/:id/estado
func (h *FacturasHandler) ActualizarEstado(c *gin.Context) {
	var req dto.ActualizarEstadoFacturaRequest
	if !bindJSON(c, &req) {
		return
	}
	f, err := h.facturas.ActualizarEstado(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// NotasAsociadas POST /v1/facturas/notas-asociadas (multipart field "archivo").
// Answers the result workbook; the counts travel in X-* headers.
func (h *FacturasHandler) NotasAsociadas(c *gin.Context) {
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Debe adjuntar el archivo de facturas en el campo 'archivo'"))
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("El archivo supera el tamaño máximo de 10 MB"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	out := &bytes.Buffer{}
	resumen, err := h.masivas.Procesar(c.Request.Context(), f, fh.Filename, out)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="notas_asociadas.xlsx"`)
	c.Header("X-Facturas", strconv.Itoa(resumen.Facturas))
	c.Header("X-Con-Nota", strconv.Itoa(resumen.ConNota))
	c.Header("X-Sin-Nota", strconv.Itoa(resumen.SinNota))
	c.Header("X-Invalidas", strconv.Itoa(resumen.Invalidas))
	c.Data(http.StatusOK, xlsxMIME, out.Bytes())
}

// ── Notas crédito ────────────────────────────────────────────────────────────

type NotasCreditoHandler struct{ svc service.NotaCreditoService }

func NewNotasCreditoHandler(svc service.NotaCreditoService) *NotasCreditoHandler {
	return &NotasCreditoHandler{svc: svc}
}

func (h *NotasCreditoHandler) Listar(c *gin.Context) {
	var filtro dto.NotaCreditoFilter
	if err := c.ShouldBindQuery(&filtro); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	notas, err := h.svc.Listar(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notas)
}

func (h *NotasCreditoHandler) Crear(c *gin.Context) {
	var req dto.CrearNotaCreditoRequest
	if !bindJSON(c, &req) {
		return
	}
	nota, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, nota)
}

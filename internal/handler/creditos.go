package handler

import (
	"net/http"

	"garittea/internal/apierror"
	"garittea/internal/dto"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

type CreditosHandler struct {
	creditos service.CreditoService
	ciclo    service.CicloCreditoService
}

func NewCreditosHandler(creditos service.CreditoService, ciclo service.CicloCreditoService) *CreditosHandler {
	return &CreditosHandler{creditos: creditos, ciclo: ciclo}
}

func (h *CreditosHandler) Listar(c *gin.Context) {
	var filtro dto.CreditoFilter
	if err := c.ShouldBindQuery(&filtro); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	creditos, err := h.creditos.Listar(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreditoListResponse{Data: creditos, Total: len(creditos)})
}

func (h *CreditosHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	credito, err := h.creditos.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, credito)
}

func (h *CreditosHandler) Crear(c *gin.Context) {
	var req dto.CrearCreditoRequest
	if !bindJSON(c, &req) {
		return
	}
	credito, err := h.creditos.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, credito)
}

// Edicion GET /v1/creditos/:id/edicion returns the inputs the edit modal enables.
func (h *CreditosHandler) Edicion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	credito, err := h.creditos.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ciclo.Campos(credito))
}

// Editar PATCH /v1/creditos/:id runs the edit through the lifecycle controller,
// against the credit as currently known to the backend.
func (h *CreditosHandler) Editar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.EditarCreditoRequest
	if !bindJSON(c, &req) {
		return
	}
	credito, err := h.creditos.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	actualizado, err := h.ciclo.Editar(c.Request.Context(), credito, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, actualizado)
}

func (h *CreditosHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.creditos.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

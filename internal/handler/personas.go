package handler

import (
	"net/http"

	"garittea/internal/dto"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

type PersonasHandler struct{ svc service.PersonaService }

func NewPersonasHandler(svc service.PersonaService) *PersonasHandler {
	return &PersonasHandler{svc: svc}
}

func (h *PersonasHandler) Listar(c *gin.Context) {
	personas, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, personas)
}

func (h *PersonasHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PersonasHandler) Crear(c *gin.Context) {
	var req dto.PersonaRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PersonasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.PersonaRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PersonasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Facultades ───────────────────────────────────────────────────────────────

type FacultadesHandler struct{ svc service.FacultadService }

func NewFacultadesHandler(svc service.FacultadService) *FacultadesHandler {
	return &FacultadesHandler{svc: svc}
}

func (h *FacultadesHandler) Listar(c *gin.Context) {
	facultades, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, facultades)
}

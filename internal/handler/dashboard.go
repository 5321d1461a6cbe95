package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"garittea/internal/apierror"
	"garittea/internal/dto"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard service.DashboardService
	reportes  service.ReporteService
}

func NewDashboardHandler(dashboard service.DashboardService, reportes service.ReporteService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, reportes: reportes}
}

func bindResumen(c *gin.Context) (dto.ResumenFilter, bool) {
	var filtro dto.ResumenFilter
	if err := c.ShouldBindQuery(&filtro); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return filtro, false
	}
	return filtro, true
}

// Resumen GET /v1/dashboard?from&to
func (h *DashboardHandler) Resumen(c *gin.Context) {
	filtro, ok := bindResumen(c)
	if !ok {
		return
	}
	r, err := h.dashboard.Resumen(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ReportePDF GET /v1/dashboard/reporte?from&to
func (h *DashboardHandler) ReportePDF(c *gin.Context) {
	filtro, ok := bindResumen(c)
	if !ok {
		return
	}
	out := &bytes.Buffer{}
	if err := h.reportes.Generar(c.Request.Context(), filtro, out); err != nil {
		respondError(c, err)
		return
	}
	nombre := fmt.Sprintf("reporte_%s.pdf", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", nombre))
	c.Data(http.StatusOK, "application/pdf", out.Bytes())
}

// EnviarReporte POST /v1/dashboard/reporte/enviar
func (h *DashboardHandler) EnviarReporte(c *gin.Context) {
	var req dto.EnviarReporteRequest
	if !bindJSON(c, &req) {
		return
	}
	path, err := h.reportes.Enviar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"enviado": true, "archivo": path})
}

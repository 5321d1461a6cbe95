package handler

import (
	"errors"
	"net/http"
	"strconv"

	"garittea/internal/apierror"
	"garittea/internal/infra"
	"garittea/internal/middleware"
	"garittea/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// bindJSON decodes the request body. Returns false and writes a 400 when the
// body is not valid JSON; tag validation happens in the service layer.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return true
}

// paramID parses the :id path segment. Returns false and writes a 400 when invalid.
func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return 0, false
	}
	return id, true
}

// respondError maps the error taxonomy onto HTTP responses:
//
//	*service.ValidationError   422 {detail, fields}
//	*service.ErrEdicionParcial 502 {detail, factura, credito}
//	*infra.HTTPError           backend status, user message
//	*infra.NetworkError        502, generic connection message
//	service.ErrSinSesion       401
//	anything else              500
func respondError(c *gin.Context, err error) {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		if len(ve.Fields) == 0 {
			c.JSON(http.StatusUnprocessableEntity, apierror.New(ve.Detail))
			return
		}
		c.JSON(http.StatusUnprocessableEntity, &apierror.ValidationError{Detail: ve.Detail, Fields: ve.Fields})
		return
	}

	var parcial *service.ErrEdicionParcial
	if errors.As(err, &parcial) {
		c.JSON(http.StatusBadGateway, &apierror.EdicionParcial{
			Detail:  service.MensajeUsuario(err),
			Factura: parcial.Factura.IDBill,
			Credito: parcial.Factura.OrderID,
		})
		return
	}

	var httpErr *infra.HTTPError
	if errors.As(err, &httpErr) {
		status := httpErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		c.JSON(status, apierror.WithCode(service.MensajeUsuario(err), httpErr.Codigo))
		return
	}

	var netErr *infra.NetworkError
	if errors.As(err, &netErr) {
		c.JSON(http.StatusBadGateway, apierror.New(service.MensajeErrorRed))
		return
	}

	switch {
	case errors.Is(err, service.ErrSinSesion):
		c.JSON(http.StatusUnauthorized, apierror.New(service.MensajeUsuario(err)))
	case errors.Is(err, service.ErrCorreoNoConfigurado):
		c.JSON(http.StatusServiceUnavailable, apierror.New("El envío de reportes por correo no está configurado"))
	default:
		log.Error().Str("request_id", c.GetString(middleware.RequestIDKey)).Err(err).Msg("error no clasificado")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

package service

import (
	"errors"
	"fmt"
	"net/http"

	"garittea/internal/dto"
	"garittea/internal/infra"
)

const (
	CodigoPedidoConFactura  = "ORDER_HAS_BILL"
	MensajePedidoConFactura = "No se puede eliminar un pedido que tiene factura asociada"
	MensajeErrorRed         = "No fue posible conectar con el servidor"
	MensajeInesperado       = "Ocurrió un error inesperado"
)

// ErrSinSesion is returned when an operation needs the acting user and there is none.
var ErrSinSesion = errors.New("no hay una sesion activa")

// ErrEdicionParcial reports the dispatch-then-update gap: the bill was created on
// the backend but the credit update failed, so the credit kept its previous state.
// Nothing is rolled back.
type ErrEdicionParcial struct {
	Factura dto.DespacharFacturaRequest
	Err     error
}

func (e *ErrEdicionParcial) Error() string {
	return fmt.Sprintf("la factura %s fue despachada pero el credito %d no se actualizo: %v",
		e.Factura.IDBill, e.Factura.OrderID, e.Err)
}

func (e *ErrEdicionParcial) Unwrap() error { return e.Err }

// EsPedidoConFactura reports whether err is the backend refusal to delete a
// credit that has a bill attached.
func EsPedidoConFactura(err error) bool {
	var httpErr *infra.HTTPError
	return errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest && httpErr.Codigo == CodigoPedidoConFactura
}

// MensajeUsuario converts any error of the taxonomy into the text shown to the user.
func MensajeUsuario(err error) string {
	if err == nil {
		return ""
	}
	if EsPedidoConFactura(err) {
		return MensajePedidoConFactura
	}

	var parcial *ErrEdicionParcial
	if errors.As(err, &parcial) {
		return fmt.Sprintf("La factura %s quedó registrada pero el crédito no cambió de estado: %s",
			parcial.Factura.IDBill, MensajeUsuario(parcial.Err))
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	var httpErr *infra.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Mensaje != "" {
			return httpErr.Mensaje
		}
		return fmt.Sprintf("Error del servidor (%d)", httpErr.Status)
	}

	var netErr *infra.NetworkError
	if errors.As(err, &netErr) {
		return MensajeErrorRed
	}
	if errors.Is(err, ErrSinSesion) {
		return "Debe iniciar sesión"
	}
	return MensajeInesperado
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EstadoCredito mirrors the numeric state ids owned by the backend.
// 4=generado | 1=pendiente | 2=nota_credito | 3=pagado
type EstadoCredito int

const (
	EstadoPendiente   EstadoCredito = 1
	EstadoNotaCredito EstadoCredito = 2
	EstadoPagado      EstadoCredito = 3
	EstadoGenerado    EstadoCredito = 4
)

// String returns the label shown in tables and reports.
func (e EstadoCredito) String() string {
	switch e {
	case EstadoGenerado:
		return "Generado"
	case EstadoPendiente:
		return "Pendiente"
	case EstadoNotaCredito:
		return "Nota crédito"
	case EstadoPagado:
		return "Pagado"
	default:
		return "Desconocido"
	}
}

// Conocido reports whether e is one of the four backend states.
func (e EstadoCredito) Conocido() bool {
	switch e {
	case EstadoGenerado, EstadoPendiente, EstadoNotaCredito, EstadoPagado:
		return true
	}
	return false
}

// Credito is one credit sale as returned by GET /credits.
type Credito struct {
	ID             int64           `json:"id"`
	Applicant      *Persona        `json:"applicant,omitempty"`
	ManagingPerson *Persona        `json:"managingPerson,omitempty"`
	Faculty        *Facultad       `json:"faculty,omitempty"`
	User           *Usuario        `json:"user,omitempty"`
	DebtAmount     decimal.Decimal `json:"debtAmount"`
	State          EstadoCredito   `json:"state"`
	Observaciones  *string         `json:"observaciones,omitempty"`
	Bill           *Factura        `json:"bill,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// TieneFactura reports whether an active bill is attached.
func (c *Credito) TieneFactura() bool {
	return c != nil && c.Bill.Activa()
}

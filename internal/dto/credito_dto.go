package dto

import (
	"net/url"
	"strconv"

	"garittea/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CrearCreditoRequest is the create-credit form. The acting user id is resolved
// from the session, never taken from the form.
type CrearCreditoRequest struct {
	ApplicantID      int64           `json:"applicantId"      validate:"required,gt=0"`
	FacultyID        int64           `json:"facultyId"        validate:"required,gt=0"`
	ManagingPersonID int64           `json:"managingPersonId" validate:"omitempty,gt=0"`
	DebtAmount       decimal.Decimal `json:"debtAmount"       validate:"required,entero_positivo"`
}

// EditarCreditoRequest is what the edit modal submits. Nil fields are untouched.
type EditarCreditoRequest struct {
	DebtAmount    *decimal.Decimal     `json:"debtAmount"    validate:"omitempty,entero_positivo"`
	Observaciones *string              `json:"observaciones" validate:"omitempty,max=500"`
	Estado        *model.EstadoCredito `json:"state"`
	FacturaID     string               `json:"idbill"        validate:"omitempty,max=50"`
	FechaFactura  string               `json:"billdate"      validate:"omitempty,datetime=2006-01-02"`
}

// ─── Backend payloads ────────────────────────────────────────────────────────

// CrearCreditoPayload is the exact body of POST /credits.
type CrearCreditoPayload struct {
	ApplicantID      int64 `json:"applicantId"`
	FacultyID        int64 `json:"facultyId"`
	ManagingPersonID int64 `json:"managingPersonId,omitempty"`
	DebtAmount       int64 `json:"debtAmount"`
	UserID           int64 `json:"userId"`
}

// ActualizarCreditoPayload is the body of PATCH /credits/{id}.
type ActualizarCreditoPayload struct {
	DebtAmount    *int64               `json:"debtAmount,omitempty"`
	Observaciones *string              `json:"observaciones,omitempty"`
	State         *model.EstadoCredito `json:"state,omitempty"`
	Bill          *string              `json:"bill,omitempty"`
}

// ─── Filters ─────────────────────────────────────────────────────────────────

type CreditoFilter struct {
	Estado     int    `form:"state"`
	FacultadID int64  `form:"faculty"`
	Desde      string `form:"from"`
	Hasta      string `form:"to"`
	Busqueda   string `form:"search"`
}

// Values encodes the filter as backend query params; zero fields are omitted.
func (f CreditoFilter) Values() url.Values {
	v := url.Values{}
	if f.Estado != 0 {
		v.Set("state", strconv.Itoa(f.Estado))
	}
	if f.FacultadID != 0 {
		v.Set("faculty", strconv.FormatInt(f.FacultadID, 10))
	}
	if f.Desde != "" {
		v.Set("from", f.Desde)
	}
	if f.Hasta != "" {
		v.Set("to", f.Hasta)
	}
	if f.Busqueda != "" {
		v.Set("search", f.Busqueda)
	}
	return v
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CamposEditablesResponse tells the edit modal which inputs to enable.
type CamposEditablesResponse struct {
	EstadoOriginal    model.EstadoCredito   `json:"estado_original"`
	Monto             bool                  `json:"monto"`
	Observaciones     bool                  `json:"observaciones"`
	Estado            bool                  `json:"estado"`
	Factura           bool                  `json:"factura"`
	EstadosPermitidos []model.EstadoCredito `json:"estados_permitidos"`
}

type CreditoListResponse struct {
	Data  []model.Credito `json:"data"`
	Total int             `json:"total"`
}

package model

import "strings"

// Factura is a bill dispatched against a credit (order).
// State is a backend label; "anulada" marks a voided bill.
type Factura struct {
	ID      string `json:"idbill"`
	OrderID int64  `json:"orderId,omitempty"`
	Fecha   string `json:"billdate"` // YYYY-MM-DD
	Estado  string `json:"state,omitempty"`
}

// Activa reports whether the bill exists and has not been voided.
func (f *Factura) Activa() bool {
	if f == nil || strings.TrimSpace(f.ID) == "" {
		return false
	}
	return !strings.EqualFold(f.Estado, "anulada")
}

// FacturaNotas is one row of the associated-notes lookup.
type FacturaNotas struct {
	IDFactura    string        `json:"idbill"`
	TieneNota    bool          `json:"hasCreditNote"`
	NotasCredito []NotaCredito `json:"creditNotes"`
}

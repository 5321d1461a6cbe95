package dto

import "github.com/shopspring/decimal"

type CrearNotaCreditoRequest struct {
	InitialBillID string          `json:"initialBillId" validate:"required,max=50"`
	FinalBillID   *string         `json:"finalBillId"   validate:"omitempty,max=50"`
	Amount        decimal.Decimal `json:"amount"        validate:"required,entero_positivo"`
	Reason        string          `json:"reason"        validate:"required,min=3,max=500"`
}

// CrearNotaCreditoPayload is the exact body of POST /creditNotes.
type CrearNotaCreditoPayload struct {
	InitialBillID string  `json:"initialBillId"`
	FinalBillID   *string `json:"finalBillId,omitempty"`
	Amount        int64   `json:"amount"`
	Reason        string  `json:"reason"`
}

type NotaCreditoFilter struct {
	FacturaID string `form:"bill"`
}

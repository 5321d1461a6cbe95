package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotaCredito links an initial bill to an optional replacement bill.
type NotaCredito struct {
	ID            int64           `json:"id"`
	InitialBillID string          `json:"initialBillId"`
	FinalBillID   *string         `json:"finalBillId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
	CreatedAt     *time.Time      `json:"createdAt,omitempty"`
}

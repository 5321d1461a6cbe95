package model

import "github.com/shopspring/decimal"

// ResumenDashboard holds the aggregates computed by the backend.
type ResumenDashboard struct {
	TotalCreditos int64            `json:"totalCredits"`
	DeudaTotal    decimal.Decimal  `json:"totalDebt"`
	PorEstado     []TotalPorEstado `json:"byState"`
	PorFacultad   []TotalFacultad  `json:"byFaculty"`
}

type TotalPorEstado struct {
	Estado   EstadoCredito   `json:"state"`
	Cantidad int64           `json:"count"`
	Monto    decimal.Decimal `json:"amount"`
}

type TotalFacultad struct {
	Facultad string          `json:"faculty"`
	Cantidad int64           `json:"count"`
	Monto    decimal.Decimal `json:"amount"`
}

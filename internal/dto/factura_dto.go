package dto

// DespacharFacturaRequest is the body of the bill dispatch call.
type DespacharFacturaRequest struct {
	IDBill   string `json:"idbill"   validate:"required,max=50"`
	OrderID  int64  `json:"orderId"  validate:"required,gt=0"`
	BillDate string `json:"billdate" validate:"required,datetime=2006-01-02"`
}

type ActualizarEstadoFacturaRequest struct {
	State string `json:"state" validate:"required,max=30"`
}

// NotasAsociadasRequest is the body of the associated-notes lookup.
type NotasAsociadasRequest struct {
	Bills []string `json:"bills" validate:"required,min=1,dive,required,numeric"`
}

// Package apierror provides the JSON envelopes of every 4xx/5xx response of the
// dashboard API. Backend payloads and Go error strings never reach the browser
// directly; handlers translate them into one of these shapes first.
package apierror

// APIError is the canonical error envelope.
// Codigo repeats the backend machine code (e.g. ORDER_HAS_BILL) when there is one.
type APIError struct {
	Detail string `json:"detail"`
	Codigo string `json:"codigo,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func WithCode(msg, codigo string) *APIError {
	return &APIError{Detail: msg, Codigo: codigo}
}

// ValidationError carries one message per offending form field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// EdicionParcial reports a bill that was dispatched while the credit update
// failed. The dashboard keeps showing the credit in its previous state.
type EdicionParcial struct {
	Detail  string `json:"detail"`
	Factura string `json:"factura"`
	Credito int64  `json:"credito"`
}

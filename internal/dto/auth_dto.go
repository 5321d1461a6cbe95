package dto

import "garittea/internal/model"

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

// LoginResponse is what POST /auth/login returns.
type LoginResponse struct {
	Token string `json:"token"`
}

// SesionResponse is the BFF view of the current session.
type SesionResponse struct {
	Autenticado bool           `json:"autenticado"`
	Usuario     *model.Usuario `json:"usuario,omitempty"`
	Motivo      string         `json:"motivo,omitempty"`
}

package dto

type PersonaRequest struct {
	Firstname string `json:"firstname" validate:"required,min=2,max=100"`
	Lastname  string `json:"lastname"  validate:"required,min=2,max=100"`
	Cellphone string `json:"cellphone" validate:"required,numeric,min=7,max=15"`
	Email     string `json:"email"     validate:"required,email"`
	Faculty   *int64 `json:"faculty,omitempty" validate:"omitempty,gt=0"`
}

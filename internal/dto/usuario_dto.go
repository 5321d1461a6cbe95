package dto

type CrearUsuarioRequest struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=8"`
	Firstname string `json:"firstname" validate:"required,min=2,max=100"`
	Lastname  string `json:"lastname"  validate:"required,min=2,max=100"`
	Role      string `json:"role"      validate:"required,oneof=admin user"`
}

type ActualizarUsuarioRequest struct {
	Email     string `json:"email,omitempty"     validate:"omitempty,email"`
	Password  string `json:"password,omitempty"  validate:"omitempty,min=8"`
	Firstname string `json:"firstname,omitempty" validate:"omitempty,min=2,max=100"`
	Lastname  string `json:"lastname,omitempty"  validate:"omitempty,min=2,max=100"`
	Role      string `json:"role,omitempty"      validate:"omitempty,oneof=admin user"`
}

package model

// Persona is an applicant or managing person.
// encoding/json matches keys case-insensitively, so the "lastName" spelling some
// endpoints return lands in Lastname as well.
type Persona struct {
	ID        int64     `json:"id"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Cellphone string    `json:"cellphone"`
	Email     string    `json:"email"`
	Faculty   *Facultad `json:"faculty,omitempty"`
}

// NombreCompleto joins first and last name for display.
func (p *Persona) NombreCompleto() string {
	if p == nil {
		return ""
	}
	if p.Lastname == "" {
		return p.Firstname
	}
	return p.Firstname + " " + p.Lastname
}

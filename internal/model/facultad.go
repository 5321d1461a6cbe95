package model

// Facultad is an institution faculty, read-only for this client.
type Facultad struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone,omitempty"`
	InChargePerson *string `json:"inchargeperson,omitempty"`
	FacultyEmail   *string `json:"facultyEmail,omitempty"`
}

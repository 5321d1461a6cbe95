package model

// Usuario is a dashboard operator.
// Role: "admin" | "user" (backend labels)
type Usuario struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Role      string `json:"role"`
}

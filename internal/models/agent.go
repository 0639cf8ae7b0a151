package models

// Agent is the identity that owns a set of properties.
type Agent struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

package models

// Branch is a department of the backend. Branches are only ever sourced remotely.
type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

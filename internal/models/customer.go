package models

// Customer is a client the field agent collects from. Remote customers come
// from /clients; manual customers are created on the device and never leave it.
type Customer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Place    string `json:"place,omitempty"`
	IsManual bool   `json:"is_manual"`
}

// CreateManualCustomerRequest represents the request body for adding a customer
// that is missing from the remote list
type CreateManualCustomerRequest struct {
	Name  string `json:"name"`
	Place string `json:"place"`
}

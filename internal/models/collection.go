package models

import "strings"

// Payment methods accepted by the backend
const (
	PaymentUPI    = "UPI"
	PaymentCash   = "cash"
	PaymentCheque = "cheque"
	PaymentNEFT   = "neft"
)

// Placeholder values written by older app builds or by the reconciler
const (
	NotesPlaceholder       = "Collection payment"
	NotesEmpty             = "No notes"
	UnknownBranchName      = "Unknown Branch"
	TempCollectionIDPrefix = "temp_"
)

// CollectionEntry is one payment collected in the field.
// ID is the server id in string form, or temp_<millis> until the server assigns one.
type CollectionEntry struct {
	ID            string  `json:"id"`
	CustomerID    string  `json:"customer_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPlace string  `json:"customer_place"`
	BranchID      string  `json:"branch_id"`
	BranchName    string  `json:"branch_name"`
	Amount        string  `json:"amount"`
	Notes         string  `json:"notes"`
	Screenshot    *string `json:"screenshot"`
	CreatedAt     string  `json:"created_at"`
	PaymentMethod string  `json:"payment_method"`
}

// IsTemporary reports whether the entry still carries a client-generated id
func (c *CollectionEntry) IsTemporary() bool {
	return strings.HasPrefix(c.ID, TempCollectionIDPrefix)
}

// CreateCollectionRequest is the submission form. Either CustomerID or
// ManualCustomerName identifies the customer. Screenshot is a local file path.
type CreateCollectionRequest struct {
	CustomerID          string `json:"customer_id"`
	CustomerName        string `json:"customer_name"`
	CustomerPlace       string `json:"customer_place"`
	ManualCustomerName  string `json:"manual_customer_name"`
	ManualCustomerPlace string `json:"manual_customer_place"`
	BranchID            string `json:"branch_id"`
	BranchName          string `json:"branch_name"`
	Amount              string `json:"amount"`
	Notes               string `json:"notes"`
	PaymentMethod       string `json:"payment_method"`
	Screenshot          string `json:"screenshot"`
}

// UpdateCollectionRequest carries the editable fields of an existing entry
type UpdateCollectionRequest struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPlace string `json:"customer_place"`
	BranchID      string `json:"branch_id"`
	BranchName    string `json:"branch_name"`
	Amount        string `json:"amount"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
	Screenshot    string `json:"screenshot"`
}

// NormalizePaymentMethod maps any casing of a known method to its canonical
// spelling. ok is false for unknown values.
func NormalizePaymentMethod(method string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "upi":
		return PaymentUPI, true
	case "cash":
		return PaymentCash, true
	case "cheque", "check":
		return PaymentCheque, true
	case "neft":
		return PaymentNEFT, true
	}
	return "", false
}

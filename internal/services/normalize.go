package services

import (
	"field-agent/internal/models"
	"field-agent/internal/remote"
)

// Field aliases seen across backend versions. The first non-empty value wins.
var (
	customerIDFields    = []string{"code", "id", "client_code", "customer_code"}
	customerNameFields  = []string{"name", "client_name", "customer_name"}
	customerPlaceFields = []string{"place", "location", "address", "address3"}

	branchIDFields   = []string{"id", "dept_id", "department_id"}
	branchNameFields = []string{"name", "department_name", "dept_name"}
	branchCodeFields = []string{"code", "dept_code"}
)

// NormalizeCustomers maps raw /clients records to customers. Records without
// an id or a name are dropped, and the first record wins on duplicate ids.
func NormalizeCustomers(records []remote.Record) []models.Customer {
	out := make([]models.Customer, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		c := models.Customer{
			ID:    rec.First(customerIDFields...),
			Name:  rec.First(customerNameFields...),
			Place: rec.First(customerPlaceFields...),
		}
		if c.ID == "" || c.Name == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// NormalizeBranches maps raw /departments records to branches
func NormalizeBranches(records []remote.Record) []models.Branch {
	out := make([]models.Branch, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		b := models.Branch{
			ID:   rec.First(branchIDFields...),
			Name: rec.First(branchNameFields...),
			Code: rec.First(branchCodeFields...),
		}
		if b.ID == "" || b.Name == "" || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, b)
	}
	return out
}

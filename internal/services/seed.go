package services

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"field-agent/internal/models"
)

//go:embed seed/customers.yaml
var seedCustomersYAML []byte

type seedCustomer struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Place string `yaml:"place"`
}

// SeedCustomers returns the built-in customer list
func SeedCustomers() []models.Customer {
	customers, err := parseSeedCustomers(seedCustomersYAML)
	if err != nil {
		// the file is compiled in, so this only fires on a broken build
		panic(err)
	}
	return customers
}

func parseSeedCustomers(data []byte) ([]models.Customer, error) {
	var raw []seedCustomer
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed customers: %w", err)
	}
	out := make([]models.Customer, 0, len(raw))
	for _, c := range raw {
		out = append(out, models.Customer{ID: c.ID, Name: c.Name, Place: c.Place})
	}
	return out, nil
}

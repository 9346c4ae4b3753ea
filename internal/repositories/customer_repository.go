package repositories

import (
	"context"

	"field-agent/internal/models"
	"field-agent/internal/store"
)

type CustomerRepository struct {
	KV store.KV
}

func NewCustomerRepository(kv store.KV) *CustomerRepository {
	return &CustomerRepository{KV: kv}
}

// ListCached returns the last remote customer list saved on the device
func (r *CustomerRepository) ListCached(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if _, err := loadJSON(ctx, r.KV, store.CachedCustomersKey, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *CustomerRepository) SaveCached(ctx context.Context, customers []models.Customer) error {
	return saveJSON(ctx, r.KV, store.CachedCustomersKey, customers)
}

// ListManual returns customers the user added on this device
func (r *CustomerRepository) ListManual(ctx context.Context, userID string) ([]models.Customer, error) {
	var customers []models.Customer
	if _, err := loadJSON(ctx, r.KV, store.ManualCustomersKey(userID), &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// AddManual appends c to the user's manual customers, replacing any entry with the same id
func (r *CustomerRepository) AddManual(ctx context.Context, userID string, c models.Customer) error {
	customers, err := r.ListManual(ctx, userID)
	if err != nil {
		return err
	}
	c.IsManual = true

	replaced := false
	for i := range customers {
		if customers[i].ID == c.ID {
			customers[i] = c
			replaced = true
		}
	}
	if !replaced {
		customers = append(customers, c)
	}
	return saveJSON(ctx, r.KV, store.ManualCustomersKey(userID), customers)
}

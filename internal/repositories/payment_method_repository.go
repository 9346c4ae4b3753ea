package repositories

import (
	"context"

	"field-agent/internal/store"
)

// PaymentMethodRepository is the device-only collection id -> payment method
// side-table. The backend does not reliably echo payment_method back.
type PaymentMethodRepository struct {
	KV store.KV
}

func NewPaymentMethodRepository(kv store.KV) *PaymentMethodRepository {
	return &PaymentMethodRepository{KV: kv}
}

func (r *PaymentMethodRepository) Load(ctx context.Context, userID string) (map[string]string, error) {
	methods := make(map[string]string)
	if _, err := loadJSON(ctx, r.KV, store.PaymentMethodsKey(userID), &methods); err != nil {
		return nil, err
	}
	if methods == nil {
		methods = make(map[string]string)
	}
	return methods, nil
}

func (r *PaymentMethodRepository) Set(ctx context.Context, userID, collectionID, method string) error {
	methods, err := r.Load(ctx, userID)
	if err != nil {
		return err
	}
	methods[collectionID] = method
	return saveJSON(ctx, r.KV, store.PaymentMethodsKey(userID), methods)
}

package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"field-agent/internal/store"
)

// loadJSON decodes the value at key into out. ok is false when the key is absent.
func loadJSON(ctx context.Context, kv store.KV, key string, out interface{}) (bool, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, kv store.KV, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, data)
}

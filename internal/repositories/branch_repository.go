package repositories

import (
	"context"

	"field-agent/internal/models"
	"field-agent/internal/store"
)

type BranchRepository struct {
	KV store.KV
}

func NewBranchRepository(kv store.KV) *BranchRepository {
	return &BranchRepository{KV: kv}
}

func (r *BranchRepository) ListCached(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	if _, err := loadJSON(ctx, r.KV, store.CachedBranchesKey, &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *BranchRepository) SaveCached(ctx context.Context, branches []models.Branch) error {
	return saveJSON(ctx, r.KV, store.CachedBranchesKey, branches)
}

package repositories

import (
	"context"

	"field-agent/internal/models"
	"field-agent/internal/store"
)

// CollectionRepository manages the two per-user collection namespaces:
// collections_<user> (entries submitted from this device) and
// cached_collections_<user> (the last reconciled list).
type CollectionRepository struct {
	KV store.KV
}

func NewCollectionRepository(kv store.KV) *CollectionRepository {
	return &CollectionRepository{KV: kv}
}

func (r *CollectionRepository) ListSubmitted(ctx context.Context, userID string) ([]models.CollectionEntry, error) {
	return r.list(ctx, store.CollectionsKey(userID))
}

func (r *CollectionRepository) ListCached(ctx context.Context, userID string) ([]models.CollectionEntry, error) {
	return r.list(ctx, store.CachedCollectionsKey(userID))
}

// ListLocal returns the cached list followed by submitted entries the cache
// does not know yet, de-duplicated by id
func (r *CollectionRepository) ListLocal(ctx context.Context, userID string) ([]models.CollectionEntry, error) {
	cached, err := r.ListCached(ctx, userID)
	if err != nil {
		return nil, err
	}
	submitted, err := r.ListSubmitted(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(cached))
	out := make([]models.CollectionEntry, 0, len(cached)+len(submitted))
	for _, e := range cached {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	for _, e := range submitted {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
	}
	return out, nil
}

func (r *CollectionRepository) SaveCached(ctx context.Context, userID string, entries []models.CollectionEntry) error {
	return saveJSON(ctx, r.KV, store.CachedCollectionsKey(userID), entries)
}

// AppendSubmitted adds e to both namespaces. The two writes are independent.
func (r *CollectionRepository) AppendSubmitted(ctx context.Context, userID string, e models.CollectionEntry) error {
	if err := r.appendTo(ctx, store.CollectionsKey(userID), e); err != nil {
		return err
	}
	return r.appendTo(ctx, store.CachedCollectionsKey(userID), e)
}

// Replace rewrites the entry with e.ID in both namespaces. found reports
// whether either namespace held the id. A failure on the second write leaves
// the namespaces out of step; there is no rollback.
func (r *CollectionRepository) Replace(ctx context.Context, userID string, e models.CollectionEntry) (bool, error) {
	foundSubmitted, err := r.replaceIn(ctx, store.CollectionsKey(userID), e)
	if err != nil {
		return foundSubmitted, err
	}
	foundCached, err := r.replaceIn(ctx, store.CachedCollectionsKey(userID), e)
	return foundSubmitted || foundCached, err
}

// Find looks the id up in the cached namespace first, then the submitted one
func (r *CollectionRepository) Find(ctx context.Context, userID, id string) (*models.CollectionEntry, error) {
	for _, key := range []string{store.CachedCollectionsKey(userID), store.CollectionsKey(userID)} {
		entries, err := r.list(ctx, key)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			if entries[i].ID == id {
				return &entries[i], nil
			}
		}
	}
	return nil, nil
}

func (r *CollectionRepository) list(ctx context.Context, key string) ([]models.CollectionEntry, error) {
	var entries []models.CollectionEntry
	if _, err := loadJSON(ctx, r.KV, key, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *CollectionRepository) appendTo(ctx context.Context, key string, e models.CollectionEntry) error {
	entries, err := r.list(ctx, key)
	if err != nil {
		return err
	}
	return saveJSON(ctx, r.KV, key, append(entries, e))
}

func (r *CollectionRepository) replaceIn(ctx context.Context, key string, e models.CollectionEntry) (bool, error) {
	entries, err := r.list(ctx, key)
	if err != nil {
		return false, err
	}
	found := false
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			found = true
		}
	}
	if !found {
		return false, nil
	}
	return true, saveJSON(ctx, r.KV, key, entries)
}

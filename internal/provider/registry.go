// Package provider is a small CRUD store of BRC-20 indexer providers over
// logical.Storage, grounded on address_storage.go's
// getStoredAddresses/storage-prefix-per-entity idiom in the teacher repo,
// replacing the original canister's ServiceProvider/RegisterProviderArgs
// registry with auto-incrementing provider_id (spec.md §6, "Persisted
// state: ... providers, auth").
package provider

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/vault/sdk/logical"
)

const (
	providerStoragePrefix = "providers/"
	nextIDStorageKey      = "providers-next-id"
)

// Record is a registered indexer provider.
type Record struct {
	ID         uint32 `json:"id"`
	BaseURL    string `json:"base_url"`
	AuthHeader string `json:"auth_header,omitempty"`
	AuthValue  string `json:"auth_value,omitempty"`
}

func storageKey(id uint32) string {
	return fmt.Sprintf("%s%d", providerStoragePrefix, id)
}

// Register assigns the next auto-incrementing provider_id and persists the
// record, mirroring the original's next_provider_id counter.
func Register(ctx context.Context, s logical.Storage, baseURL, authHeader, authValue string) (Record, error) {
	next, err := nextID(ctx, s)
	if err != nil {
		return Record{}, err
	}

	rec := Record{ID: next, BaseURL: baseURL, AuthHeader: authHeader, AuthValue: authValue}
	if err := put(ctx, s, rec); err != nil {
		return Record{}, err
	}
	if err := setNextID(ctx, s, next+1); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update overwrites an existing provider record in place (rotation of base
// URL or credentials without reassigning the id).
func Update(ctx context.Context, s logical.Storage, rec Record) error {
	existing, err := Get(ctx, s, rec.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("provider: id %d not registered", rec.ID)
	}
	return put(ctx, s, rec)
}

// Get returns nil, nil when the provider id is unregistered.
func Get(ctx context.Context, s logical.Storage, id uint32) (*Record, error) {
	entry, err := s.Get(ctx, storageKey(id))
	if err != nil {
		return nil, fmt.Errorf("provider: read id %d: %w", id, err)
	}
	if entry == nil {
		return nil, nil
	}
	var rec Record
	if err := entry.DecodeJSON(&rec); err != nil {
		return nil, fmt.Errorf("provider: decode id %d: %w", id, err)
	}
	return &rec, nil
}

// List returns every registered provider, sorted by id.
func List(ctx context.Context, s logical.Storage) ([]Record, error) {
	entries, err := s.List(ctx, providerStoragePrefix)
	if err != nil {
		return nil, fmt.Errorf("provider: list: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, key := range entries {
		entry, err := s.Get(ctx, providerStoragePrefix+key)
		if err != nil || entry == nil {
			continue
		}
		var rec Record
		if err := entry.DecodeJSON(&rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Remove deregisters a provider id.
func Remove(ctx context.Context, s logical.Storage, id uint32) error {
	return s.Delete(ctx, storageKey(id))
}

func put(ctx context.Context, s logical.Storage, rec Record) error {
	entry, err := logical.StorageEntryJSON(storageKey(rec.ID), rec)
	if err != nil {
		return fmt.Errorf("provider: encode id %d: %w", rec.ID, err)
	}
	return s.Put(ctx, entry)
}

func nextID(ctx context.Context, s logical.Storage) (uint32, error) {
	entry, err := s.Get(ctx, nextIDStorageKey)
	if err != nil {
		return 0, fmt.Errorf("provider: read next id counter: %w", err)
	}
	if entry == nil {
		return 0, nil
	}
	var id uint32
	if err := entry.DecodeJSON(&id); err != nil {
		return 0, fmt.Errorf("provider: decode next id counter: %w", err)
	}
	return id, nil
}

func setNextID(ctx context.Context, s logical.Storage, next uint32) error {
	entry, err := logical.StorageEntryJSON(nextIDStorageKey, next)
	if err != nil {
		return fmt.Errorf("provider: encode next id counter: %w", err)
	}
	return s.Put(ctx, entry)
}

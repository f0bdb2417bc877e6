// Package authset mirrors the subset of the original canister's Auth
// permission enum this bridge actually gates (Manage, RegisterProvider),
// checked by the Vault path layer before provider registration, permission
// grants, and service-address sends (spec.md §6,
// "Persisted state: two stable key-value maps (providers, auth)"). The
// original enum's PriorityRpc/FreeRpc variants gate RPC throttling, which
// has no SPEC_FULL component here -- see DESIGN.md's dropped-modules entry.
package authset

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/sdk/logical"
)

type Permission string

const (
	Manage           Permission = "manage"
	RegisterProvider Permission = "register_provider"
)

const authStoragePrefix = "auth/"

// Set persists the set of permissions granted to a principal (an operator
// identity string; this deployment has no canister-style Principal type,
// so callers pass whatever identity the dispatch layer authenticates).
func Set(ctx context.Context, s logical.Storage, principal string, perms []Permission) error {
	entry, err := logical.StorageEntryJSON(authStoragePrefix+principal, perms)
	if err != nil {
		return fmt.Errorf("authset: encode %q: %w", principal, err)
	}
	return s.Put(ctx, entry)
}

// Get returns the permissions granted to a principal, or nil if none.
func Get(ctx context.Context, s logical.Storage, principal string) ([]Permission, error) {
	entry, err := s.Get(ctx, authStoragePrefix+principal)
	if err != nil {
		return nil, fmt.Errorf("authset: read %q: %w", principal, err)
	}
	if entry == nil {
		return nil, nil
	}
	var perms []Permission
	if err := entry.DecodeJSON(&perms); err != nil {
		return nil, fmt.Errorf("authset: decode %q: %w", principal, err)
	}
	return perms, nil
}

// Revoke removes all permissions for a principal.
func Revoke(ctx context.Context, s logical.Storage, principal string) error {
	return s.Delete(ctx, authStoragePrefix+principal)
}

// Has reports whether a principal's stored permission set contains perm.
func Has(ctx context.Context, s logical.Storage, principal string, perm Permission) (bool, error) {
	perms, err := Get(ctx, s, principal)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyManager reports whether any principal currently holds Manage,
// letting the dispatch layer distinguish first-run bootstrap (nobody
// manages the deployment yet, so cmd/syronctl may seed one) from every
// later grant (which must come from an existing manager).
func HasAnyManager(ctx context.Context, s logical.Storage) (bool, error) {
	keys, err := s.List(ctx, authStoragePrefix)
	if err != nil {
		return false, fmt.Errorf("authset: list: %w", err)
	}
	for _, key := range keys {
		entry, err := s.Get(ctx, authStoragePrefix+key)
		if err != nil || entry == nil {
			continue
		}
		var perms []Permission
		if err := entry.DecodeJSON(&perms); err != nil {
			continue
		}
		for _, p := range perms {
			if p == Manage {
				return true, nil
			}
		}
	}
	return false, nil
}

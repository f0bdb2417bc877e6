// Package indexer bridges to a small set of BRC-20 indexer providers,
// canonicalizing every response before it enters replicated consensus,
// grounded on original_source/http.rs's web3_request/canonicalize_json
// and the numeric provider_id dispatch in original_source/constants.rs
// (spec.md §4.6).
package indexer

import "fmt"

// Provider identifies one BRC-20 indexer backend by the numeric id the
// original canister used to key ResolvedServiceProvider.
type Provider struct {
	ID      uint32
	BaseURL string
	// AuthHeader and AuthValue set the provider-specific auth header
	// (spec.md §6: "Authorization: Bearer ..." or "x-api-key: ...").
	AuthHeader string
	AuthValue  string
}

// Registry is the set of configured providers, keyed by ID.
type Registry struct {
	providers map[uint32]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[uint32]Provider)}
}

func (r *Registry) Set(p Provider) {
	r.providers[p.ID] = p
}

func (r *Registry) Get(id uint32) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return Provider{}, fmt.Errorf("indexer: unknown provider_id %d", id)
	}
	return p, nil
}

// endpointTemplates returns the (inscriptionInfoPath, brc20InfoPath)
// templates for a provider_id, per the three endpoint families spec.md
// §4.6 enumerates.
func endpointTemplates(providerID uint32) (inscriptionInfoFmt, addressBRC20Fmt string) {
	switch providerID {
	case 0, 1:
		return "get-unisat-inscription-info?id=%si0", "get-unisat-brc20-info?id=%s"
	case 2, 3:
		return "v1/indexer/inscription/info/%si0", "v1/indexer/address/%s/brc20/summary"
	default:
		return "inscription/single_info_id?inscription_id=%si0", ""
	}
}

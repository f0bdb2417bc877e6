package indexer

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrorKind classifies an IndexerError, matching spec.md §4.6's
// IndexerError{http_status|parse|wrong_provider} shape.
type ErrorKind int

const (
	ErrHTTPStatus ErrorKind = iota
	ErrParse
	ErrWrongProvider
)

type IndexerError struct {
	Kind       ErrorKind
	HTTPStatus int
	Detail     string
}

func (e *IndexerError) Error() string {
	switch e.Kind {
	case ErrHTTPStatus:
		return fmt.Sprintf("indexer: http status %d: %s", e.HTTPStatus, e.Detail)
	case ErrWrongProvider:
		return fmt.Sprintf("indexer: wrong provider: %s", e.Detail)
	default:
		return fmt.Sprintf("indexer: parse error: %s", e.Detail)
	}
}

// InscriptionInfo is the canonicalized view of a BRC-20 transfer
// inscription's UTXO holder, extracted from /utxo/address.
type InscriptionInfo struct {
	HolderAddress string
	Raw           []byte // canonicalized response body
}

// BRC20Balance is the canonicalized view of an address's BRC-20 amount,
// extracted from /brc20/amt and converted to u64 satoshi-equivalent units.
type BRC20Balance struct {
	AmountSats uint64
	Raw        []byte
}

// Bridge performs HTTPS outcalls against a configured Provider and
// canonicalizes every response before it is handed to the caller, mirroring
// the transform-then-consensus step the original canister's http_request
// outcall performed (original_source/http.rs).
type Bridge struct {
	client *retryablehttp.Client
}

// NewBridge builds a Bridge with go-retryablehttp's default exponential
// backoff; the replicated-execution transform step the original relied on
// has no canister analogue here, so canonicalization happens synchronously
// on every response instead (spec.md §4.6).
func NewBridge() *Bridge {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &Bridge{client: client}
}

func (b *Bridge) get(ctx context.Context, provider Provider, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, provider.BaseURL+path, nil)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if provider.AuthHeader != "" {
		req.Header.Set(provider.AuthHeader, provider.AuthValue)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &IndexerError{Kind: ErrHTTPStatus, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}
	if resp.StatusCode >= 300 {
		return nil, &IndexerError{Kind: ErrHTTPStatus, HTTPStatus: resp.StatusCode, Detail: string(body)}
	}

	canonical, err := Canonicalize(body)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}
	return canonical, nil
}

// InscriptionInfo fetches the UTXO holder of a BRC-20 transfer inscription
// (the `{txid}i0` convention: inscription number 0 of the given txid).
func (b *Bridge) InscriptionInfo(ctx context.Context, reg *Registry, providerID uint32, txid string) (*InscriptionInfo, error) {
	provider, err := reg.Get(providerID)
	if err != nil {
		return nil, &IndexerError{Kind: ErrWrongProvider, Detail: err.Error()}
	}

	inscriptionFmt, _ := endpointTemplates(providerID)
	path := fmt.Sprintf(inscriptionFmt, txid)

	canonical, err := b.get(ctx, provider, path)
	if err != nil {
		return nil, err
	}

	v, err := decodeJSON(canonical)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}
	addr, ok := Pointer(v, "/utxo/address")
	if !ok {
		return nil, &IndexerError{Kind: ErrParse, Detail: "missing /utxo/address"}
	}
	addrStr, ok := addr.(string)
	if !ok {
		return nil, &IndexerError{Kind: ErrParse, Detail: "/utxo/address is not a string"}
	}

	return &InscriptionInfo{HolderAddress: addrStr, Raw: canonical}, nil
}

// BRC20Info fetches an address's SUSD BRC-20 balance summary.
func (b *Bridge) BRC20Info(ctx context.Context, reg *Registry, providerID uint32, address string) (*BRC20Balance, error) {
	provider, err := reg.Get(providerID)
	if err != nil {
		return nil, &IndexerError{Kind: ErrWrongProvider, Detail: err.Error()}
	}

	_, brc20Fmt := endpointTemplates(providerID)
	if brc20Fmt == "" {
		return nil, &IndexerError{Kind: ErrWrongProvider, Detail: "provider has no brc20-info endpoint"}
	}
	path := fmt.Sprintf(brc20Fmt, address)

	canonical, err := b.get(ctx, provider, path)
	if err != nil {
		return nil, err
	}

	v, err := decodeJSON(canonical)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}
	amt, ok := Pointer(v, "/brc20/amt")
	if !ok {
		return nil, &IndexerError{Kind: ErrParse, Detail: "missing /brc20/amt"}
	}
	amtStr, ok := amt.(string)
	if !ok {
		return nil, &IndexerError{Kind: ErrParse, Detail: "/brc20/amt is not a decimal string"}
	}

	sats, err := DecimalToSats(amtStr)
	if err != nil {
		return nil, &IndexerError{Kind: ErrParse, Detail: err.Error()}
	}

	return &BRC20Balance{AmountSats: sats, Raw: canonical}, nil
}

// DecimalToSats converts a decimal-string BRC-20 amount to u64 satoshis by
// floor(decimal * 10^8), matching spec.md §4.6's conversion rule, computed
// with exact rational arithmetic so no float rounding ever perturbs a
// balance figure.
func DecimalToSats(decimal string) (uint64, error) {
	r, ok := new(big.Rat).SetString(decimal)
	if !ok {
		return 0, fmt.Errorf("indexer: invalid decimal amount %q", decimal)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(8), nil)
	r.Mul(r, new(big.Rat).SetInt(scale))
	if r.Sign() < 0 {
		return 0, fmt.Errorf("indexer: negative amount %q", decimal)
	}
	floor := new(big.Int).Quo(r.Num(), r.Denom())
	return floor.Uint64(), nil
}

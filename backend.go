// Package syron implements a HashiCorp Vault secrets engine that custodies
// a Bitcoin-collateralized BRC-20 stablecoin bridge: deterministic
// per-identity address derivation, UTXO-level transaction construction
// against a threshold-ECDSA oracle, a BRC-20 indexer bridge, and the
// four-subaccount ledger and orchestrator state machine that tie them
// together (spec.md).
package syron

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/btcrpc"
	"github.com/txalkan/basic-bitcoin-syron/internal/indexer"
	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/leases"
	"github.com/txalkan/basic-bitcoin-syron/internal/orchestrator"
	"github.com/txalkan/basic-bitcoin-syron/internal/provider"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
)

// syronBackend is the dispatch layer: one cached *btcrpc.Client and
// *orchestrator.Orchestrator pair, rebuilt from persisted config/provider
// storage whenever either changes, mirroring the teacher's
// client/cache-plus-invalidate pattern in backend.go.
type syronBackend struct {
	*framework.Backend
	lock         sync.RWMutex
	btcClient    *btcrpc.Client
	orchestrator *orchestrator.Orchestrator
	leases       *leases.Manager
}

// Factory creates a new backend instance.
func Factory(ctx context.Context, conf *logical.BackendConfig) (logical.Backend, error) {
	b := backend()
	if err := b.Setup(ctx, conf); err != nil {
		return nil, err
	}
	return b, nil
}

func backend() *syronBackend {
	b := &syronBackend{
		leases: leases.NewManager(),
	}

	b.Backend = &framework.Backend{
		Help: strings.TrimSpace(backendHelp),
		PathsSpecial: &logical.Paths{
			SealWrapStorage: []string{
				"config",
			},
		},
		Paths: framework.PathAppend(
			pathConfig(b),
			pathProviders(b),
			pathAuth(b),
			pathAddress(b),
			pathBalance(b),
			pathWithdraw(b),
			pathRedeem(b),
			pathLiquidate(b),
			pathPayment(b),
			pathSend(b),
		),
		Secrets:     []*framework.Secret{},
		BackendType: logical.TypeLogical,
		Invalidate:  b.invalidate,
	}

	return b
}

// invalidate resets the cached orchestrator when configuration or a
// provider registration changes underneath it (e.g. on a standby node
// catching up on replicated storage), the same trigger set backend.go's
// invalidate watches for the Electrum client.
func (b *syronBackend) invalidate(ctx context.Context, key string) {
	if key == configStoragePath || strings.HasPrefix(key, "providers/") {
		b.reset()
	}
}

// reset clears the cached client and orchestrator so the next call rebuilds
// both from current storage.
func (b *syronBackend) reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.btcClient != nil {
		b.Logger().Debug("closing indexer node connection")
		b.btcClient.Close()
		b.btcClient = nil
	}
	b.orchestrator = nil
}

// getOrchestrator returns the cached Orchestrator, building it from
// persisted config and provider records if necessary. Mirrors
// backend.go's getClient double-checked-locking shape.
func (b *syronBackend) getOrchestrator(ctx context.Context, s logical.Storage) (*orchestrator.Orchestrator, error) {
	b.lock.RLock()
	if b.orchestrator != nil {
		o := b.orchestrator
		b.lock.RUnlock()
		return o, nil
	}
	b.lock.RUnlock()

	b.lock.Lock()
	defer b.lock.Unlock()

	if b.orchestrator != nil {
		return b.orchestrator, nil
	}

	cfg, err := getConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("syron: backend is not configured; write to config first")
	}
	if cfg.KeyName == "" || cfg.KeySeedHex == "" {
		return nil, fmt.Errorf("syron: config is missing key_name/key_seed")
	}
	if cfg.IndexerNodeURL == "" {
		return nil, fmt.Errorf("syron: config is missing indexer_node_url")
	}

	seedBytes, err := hex.DecodeString(cfg.KeySeedHex)
	if err != nil || len(seedBytes) != 32 {
		return nil, fmt.Errorf("syron: stored key_seed is not 32 bytes of hex")
	}
	var seed signer.RootSeed
	copy(seed[:], seedBytes)
	oracle := signer.NewVaultOracle()
	oracle.SetRoot(cfg.KeyName, seed)

	var ownerBytes []byte
	if cfg.OwnerBytesHex != "" {
		ownerBytes, err = hex.DecodeString(cfg.OwnerBytesHex)
		if err != nil {
			return nil, fmt.Errorf("syron: stored owner_bytes is not valid hex")
		}
	}

	skip := make(map[string]struct{}, len(cfg.SkipTxids))
	for _, txid := range cfg.SkipTxids {
		skip[txid] = struct{}{}
	}

	ssiContext := ssi.Context{
		Network:             ssi.Network(cfg.Network),
		KeyName:             cfg.KeyName,
		OwnerBytes:          ownerBytes,
		FeeFloorMsatPerByte: cfg.FeeFloorMsatPerByte,
		DustThresholdSats:   cfg.DustThresholdSats,
		MinConfirmations:    cfg.MinConfirmations,
		SkipTxids:           skip,
	}

	client, err := btcrpc.Dial(cfg.IndexerNodeURL)
	if err != nil {
		return nil, fmt.Errorf("syron: dial indexer node: %w", err)
	}

	reg := indexer.NewRegistry()
	records, err := provider.List(ctx, s)
	if err != nil {
		client.Close()
		return nil, err
	}
	for _, rec := range records {
		reg.Set(indexer.Provider{ID: rec.ID, BaseURL: rec.BaseURL, AuthHeader: rec.AuthHeader, AuthValue: rec.AuthValue})
	}

	o := &orchestrator.Orchestrator{
		Context:  ssiContext,
		Oracle:   oracle,
		BTC:      client,
		Indexer:  indexer.NewBridge(),
		Registry: reg,
		Storage:  s,
		Leases:   b.leases,
		Gov: ledger.GovernanceParams{
			LTV:               cfg.LTV,
			OraclePriceRateE9: cfg.OraclePriceRateE9,
		},
		Logger:    b.Logger(),
		SelfCheck: cfg.SelfCheck,
	}

	b.btcClient = client
	b.orchestrator = o
	return o, nil
}

const backendHelp = `
The Syron secrets engine custodies a Bitcoin-collateralized BRC-20
stablecoin bridge: every self-sovereign identifier (SSI) is deterministically
mapped to a wallet address, a deposit box (SDB), and a shared service
address, with no user private key ever existing outside a single
seal-wrapped threshold-ECDSA root.

Endpoints:
  syron/config                         - network, signing key, indexer node, governance constants
  syron/providers                      - list/register BRC-20 indexer providers
  syron/auth/:principal                - grant/revoke operator permissions
  syron/address/p2wpkh                 - the service's own address
  syron/address/box/:ssi               - an SSI's wallet/sdb/service box address
  syron/balance/susd/:ssi              - an SSI's SUSD balance at one subaccount nonce
  syron/balance/sbtc/:ssi              - an SSI's BTC balance at one subaccount nonce
  syron/account/:ssi                   - all subaccount balances and collateral ratio
  syron/withdraw/:ssi                  - relay a mint-transfer inscription to the user's wallet
  syron/redeem/:ssi                    - burn the SDB transfer-inscription and return BTC collateral
  syron/liquidate                      - seize an undercollateralized position
  syron/payment                        - move SUSD between two SSIs' available balances
  syron/send                           - operator-only: send BTC from the service's own address
`

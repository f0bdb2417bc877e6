package syron

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
)

const configStoragePath = "config"

// syronConfig stores the secrets engine configuration: the network to
// derive addresses for, the threshold-ECDSA root this deployment signs
// with, the BTC node/indexer this deployment talks to, and the governance
// constants the ledger mints and liquidates against. KeySeedHex lives
// under SealWrapStorage alongside the rest of "config" (backend.go),
// mirroring the teacher's btcWallet.Seed field kept next to everything
// else under "wallets/*".
type syronConfig struct {
	Network             string   `json:"network"`
	KeyName             string   `json:"key_name"`
	KeySeedHex          string   `json:"key_seed"`
	OwnerBytesHex       string   `json:"owner_bytes"`
	IndexerNodeURL      string   `json:"indexer_node_url"`
	FeeFloorMsatPerByte uint64   `json:"fee_floor_msat_per_byte"`
	DustThresholdSats   int64    `json:"dust_threshold_sats"`
	MinConfirmations    int      `json:"min_confirmations"`
	LTV                 uint64   `json:"ltv"`
	OraclePriceRateE9   uint64   `json:"oracle_price_rate_e9"`
	SelfCheck           bool     `json:"self_check"`
	SkipTxids           []string `json:"skip_txids"`
}

func pathConfig(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "config",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
			},
			Fields: map[string]*framework.FieldSchema{
				"network": {
					Type:        framework.TypeString,
					Description: "Bitcoin network: mainnet, testnet, regtest, or signet",
					Default:     "testnet",
				},
				"key_name": {
					Type:        framework.TypeString,
					Description: "Threshold-ECDSA key name this deployment signs with. Mainnet and testnet/signet MUST use distinct key names.",
				},
				"key_seed": {
					Type:        framework.TypeString,
					Description: "Hex-encoded 32-byte root seed backing key_name. Never returned by a read.",
				},
				"owner_bytes": {
					Type:        framework.TypeString,
					Description: "Hex-encoded fixed byte string identifying this deployment's root key-holder, the first element of every derivation path.",
				},
				"indexer_node_url": {
					Type:        framework.TypeString,
					Description: "Electrum-protocol RPC endpoint used for UTXO lookups, fee percentile, and broadcast.",
				},
				"fee_floor_msat_per_byte": {
					Type:        framework.TypeInt64,
					Description: "Minimum fee rate (millisats/byte) the fee-fixed-point loop never drops below.",
					Default:     1000,
				},
				"dust_threshold_sats": {
					Type:        framework.TypeInt64,
					Description: "UTXOs below this value are classified as inscription-carrying rather than spendable.",
					Default:     600,
				},
				"min_confirmations": {
					Type:        framework.TypeInt,
					Description: "Minimum confirmations required before a deposit is credited.",
					Default:     1,
				},
				"ltv": {
					Type:        framework.TypeInt64,
					Description: "Loan-to-value divisor applied on confirmed deposit (governance constant).",
				},
				"oracle_price_rate_e9": {
					Type:        framework.TypeInt64,
					Description: "BTC/USD rate scaled by 1e9, used for minting and collateral-ratio pricing.",
				},
				"self_check": {
					Type:        framework.TypeBool,
					Description: "Re-read ledger balances after every commit and trap an invariant violation on failure.",
					Default:     false,
				},
				"skip_txids": {
					Type:        framework.TypeCommaStringSlice,
					Description: "Txids whose UTXOs at the service address are never selected as fee-bearing inputs (minter-balance skip-list).",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathConfigRead,
					DisplayAttrs: &framework.DisplayAttributes{
						OperationSuffix: "config",
					},
				},
				logical.CreateOperation: &framework.PathOperation{
					Callback: b.pathConfigWrite,
					DisplayAttrs: &framework.DisplayAttributes{
						OperationSuffix: "config",
					},
				},
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathConfigWrite,
					DisplayAttrs: &framework.DisplayAttributes{
						OperationSuffix: "config",
					},
				},
				logical.DeleteOperation: &framework.PathOperation{
					Callback: b.pathConfigDelete,
					DisplayAttrs: &framework.DisplayAttributes{
						OperationSuffix: "config",
					},
				},
			},
			ExistenceCheck:  b.pathConfigExistenceCheck,
			HelpSynopsis:    pathConfigHelpSynopsis,
			HelpDescription: pathConfigHelpDescription,
		},
	}
}

func (b *syronBackend) pathConfigExistenceCheck(ctx context.Context, req *logical.Request, data *framework.FieldData) (bool, error) {
	out, err := req.Storage.Get(ctx, configStoragePath)
	if err != nil {
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return out != nil, nil
}

func (b *syronBackend) pathConfigRead(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	config, err := getConfig(ctx, req.Storage)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}

	// key_seed never leaves the seal-wrapped boundary once written.
	return &logical.Response{Data: map[string]interface{}{
		"network":                 config.Network,
		"key_name":                config.KeyName,
		"owner_bytes":             config.OwnerBytesHex,
		"indexer_node_url":        config.IndexerNodeURL,
		"fee_floor_msat_per_byte": config.FeeFloorMsatPerByte,
		"dust_threshold_sats":     config.DustThresholdSats,
		"min_confirmations":       config.MinConfirmations,
		"ltv":                     config.LTV,
		"oracle_price_rate_e9":    config.OraclePriceRateE9,
		"self_check":              config.SelfCheck,
		"skip_txids":              config.SkipTxids,
	}}, nil
}

func (b *syronBackend) pathConfigWrite(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	config, err := getConfig(ctx, req.Storage)
	if err != nil {
		return nil, err
	}

	createOperation := req.Operation == logical.CreateOperation
	if config == nil {
		if !createOperation {
			return nil, fmt.Errorf("config not found during update operation")
		}
		config = &syronConfig{}
	}

	if v, ok := data.GetOk("network"); ok {
		config.Network = v.(string)
	} else if createOperation {
		config.Network = data.Get("network").(string)
	}
	if v, ok := data.GetOk("key_name"); ok {
		config.KeyName = v.(string)
	}
	if v, ok := data.GetOk("key_seed"); ok {
		seedHex := v.(string)
		if seedHex != "" {
			if raw, derr := hex.DecodeString(seedHex); derr != nil || len(raw) != 32 {
				return logical.ErrorResponse("key_seed must be 32 bytes of hex"), nil
			}
			config.KeySeedHex = seedHex
		}
	}
	if v, ok := data.GetOk("owner_bytes"); ok {
		if _, derr := hex.DecodeString(v.(string)); derr != nil {
			return logical.ErrorResponse("owner_bytes must be hex-encoded"), nil
		}
		config.OwnerBytesHex = v.(string)
	}
	if v, ok := data.GetOk("indexer_node_url"); ok {
		config.IndexerNodeURL = v.(string)
	}
	if v, ok := data.GetOk("fee_floor_msat_per_byte"); ok {
		config.FeeFloorMsatPerByte = uint64(v.(int64))
	} else if createOperation {
		config.FeeFloorMsatPerByte = uint64(data.Get("fee_floor_msat_per_byte").(int64))
	}
	if v, ok := data.GetOk("dust_threshold_sats"); ok {
		config.DustThresholdSats = v.(int64)
	} else if createOperation {
		config.DustThresholdSats = data.Get("dust_threshold_sats").(int64)
	}
	if v, ok := data.GetOk("min_confirmations"); ok {
		config.MinConfirmations = v.(int)
	} else if createOperation {
		config.MinConfirmations = data.Get("min_confirmations").(int)
	}
	if v, ok := data.GetOk("ltv"); ok {
		config.LTV = uint64(v.(int64))
	}
	if v, ok := data.GetOk("oracle_price_rate_e9"); ok {
		config.OraclePriceRateE9 = uint64(v.(int64))
	}
	if v, ok := data.GetOk("self_check"); ok {
		config.SelfCheck = v.(bool)
	}
	if v, ok := data.GetOk("skip_txids"); ok {
		config.SkipTxids = v.([]string)
	}

	if _, perr := ssi.Params(ssi.Network(config.Network)); perr != nil {
		return logical.ErrorResponse("network must be one of mainnet, testnet, regtest, signet"), nil
	}
	if config.MinConfirmations < 0 {
		return logical.ErrorResponse("min_confirmations must be >= 0"), nil
	}

	entry, err := logical.StorageEntryJSON(configStoragePath, config)
	if err != nil {
		return nil, err
	}
	if err := req.Storage.Put(ctx, entry); err != nil {
		return nil, err
	}

	// Reset cached orchestrator/client so the new config takes effect.
	b.reset()

	return nil, nil
}

func (b *syronBackend) pathConfigDelete(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	if err := req.Storage.Delete(ctx, configStoragePath); err != nil {
		return nil, fmt.Errorf("error deleting config: %w", err)
	}
	b.reset()
	return nil, nil
}

func getConfig(ctx context.Context, s logical.Storage) (*syronConfig, error) {
	entry, err := s.Get(ctx, configStoragePath)
	if err != nil {
		return nil, fmt.Errorf("error retrieving config: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	config := new(syronConfig)
	if err := entry.DecodeJSON(config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return config, nil
}

const pathConfigHelpSynopsis = `
Configure the Syron Bitcoin/BRC-20 bridge secrets engine.
`

const pathConfigHelpDescription = `
This endpoint configures the network, signing key, indexer node, and
governance constants for the Syron custodial bridge.

Example:
  $ vault write syron/config \
      network=testnet \
      key_name=syron-testnet-1 \
      key_seed=$(openssl rand -hex 32) \
      owner_bytes=73797278 \
      indexer_node_url=ssl://electrum.blockstream.info:60002 \
      ltv=5000 \
      oracle_price_rate_e9=65000000000000
`

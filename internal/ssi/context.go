// Package ssi implements deterministic key and address derivation from a
// Self-Sovereign Identifier (SSI): SSI -> subaccount -> derivation path ->
// threshold-ECDSA public key -> P2WPKH address.
package ssi

import "github.com/btcsuite/btcd/chaincfg"

// Network identifies which Bitcoin network addresses are derived for.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
	Signet  Network = "signet"
)

// Params returns the chaincfg parameters for a network name.
func Params(network Network) (*chaincfg.Params, error) {
	switch network {
	case Mainnet:
		return &chaincfg.MainNetParams, nil
	case Testnet:
		return &chaincfg.TestNet3Params, nil
	case Regtest:
		return &chaincfg.RegressionNetParams, nil
	case Signet:
		return &chaincfg.SigNetParams, nil
	default:
		return nil, ErrUnknownNetwork{Network: network}
	}
}

// Context is the explicit, immutable configuration handed to every
// derivation and transaction-building operation, replacing the ambient
// thread-local cells (network, key-name, derivation-path root) that a
// canister-style runtime would otherwise keep in globals. It is built once
// at plugin configuration time and threaded through explicitly from then
// on (see spec.md §9, "Design Notes").
type Context struct {
	Network Network
	// KeyName identifies which service-held threshold-ECDSA key this
	// deployment signs with (mainnet and testnet/signet MUST use distinct
	// key names -- see spec.md §4.1).
	KeyName string
	// OwnerBytes is the first element of every derivation path: a fixed
	// byte string identifying the canister/service root key-holder.
	OwnerBytes []byte
	// FeeFloorMsatPerByte is the caller-supplied minimum fee rate
	// (millisats/byte) below which the fee-fixed-point loop never drops,
	// regardless of what the node's percentile feed reports.
	FeeFloorMsatPerByte uint64
	// DustThresholdSats is the inscription-carrier classification
	// threshold (spec.md §4.4): any UTXO below this value is treated as
	// carrying a BRC-20 inscription rather than spendable fee balance.
	DustThresholdSats int64
	// MinConfirmations is the confirmation depth a deposit UTXO must reach
	// before ReconcileDeposits folds it into B[BTC,1]/mints against it
	// (spec.md §4.7, "Deposit confirmed").
	MinConfirmations int
	// SkipTxids is the configurable skip-list superseding the single
	// hard-coded "minter balance inscription" txid blacklist in the
	// original implementation (spec.md §9, Open Question).
	SkipTxids map[string]struct{}
}

// ShouldSkip reports whether a txid is on the configured skip-list.
func (c Context) ShouldSkip(txid string) bool {
	_, ok := c.SkipTxids[txid]
	return ok
}

// ErrUnknownNetwork is returned by Params for an unrecognized network name.
type ErrUnknownNetwork struct {
	Network Network
}

func (e ErrUnknownNetwork) Error() string {
	return "ssi: unknown network: " + string(e.Network)
}

package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// scriptPubKeyFor returns the P2WPKH scriptPubKey for a given pubkey hash,
// used to populate the MultiPrevOutFetcher the BIP-143 sighash needs.
func scriptPubKeyFor(pubKeyHash []byte, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	if err != nil {
		return nil, fmt.Errorf("txbuilder: building scriptPubKey: %w", err)
	}
	return txscript.PayToAddrScript(addr)
}

func txWireTxOut(value int64, script []byte) wire.TxOut {
	return wire.TxOut{Value: value, PkScript: script}
}

// MissingDepositError reports that a candidate UTXO set cannot cover the
// requested target; AdditionalDepositRequired is in sats (spec.md §4.5).
type MissingDepositError struct {
	AdditionalDepositRequired int64
}

func (e *MissingDepositError) Error() string {
	return fmt.Sprintf("txbuilder: please deposit at least %d additional sats", e.AdditionalDepositRequired)
}

package orchestrator

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

func scriptPubKeyFor(pubKeyHash []byte, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: building scriptPubKey: %w", err)
	}
	return txscript.PayToAddrScript(addr)
}

func wireTxOut(value int64, script []byte) wire.TxOut {
	return wire.TxOut{Value: value, PkScript: script}
}

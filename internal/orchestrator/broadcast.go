package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// signingParams carries the network parameters and the single
// (keyName, path, pubkey) triple every input of a built transaction
// shares (internal/signer.Sign's single-key-per-call constraint).
type signingParams struct {
	Params  *chaincfg.Params
	KeyName string
}

// signAndBroadcast is the Sign -> Broadcast pair of the step machine:
// convert to wire form, compute BIP-143 sighashes, call the real oracle,
// assemble witnesses, serialize, and broadcast (spec.md §9's step machine).
func signAndBroadcast(
	ctx context.Context,
	oracle signer.Oracle,
	node interface {
		SendTransaction(string) (string, error)
	},
	unsigned txmodel.UnsignedTransaction,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
	sp signingParams,
) (string, error) {
	msg, err := txmodel.ToWireUnsigned(unsigned, sp.Params)
	if err != nil {
		return "", fmt.Errorf("orchestrator: build wire tx: %w", err)
	}

	script, err := scriptPubKeyFor(pubKeyHash, sp.Params)
	if err != nil {
		return "", err
	}

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	for idx, in := range msg.TxIn {
		out := wireTxOut(unsigned.Inputs[idx].ValueSats, script)
		prevOutFetcher.AddPrevOut(in.PreviousOutPoint, &out)
	}

	if err := signer.Sign(ctx, oracle, msg, prevOutFetcher, sp.KeyName, path, pubKey, pubKeyHash); err != nil {
		return "", fmt.Errorf("orchestrator: sign: %w", err)
	}

	raw, err := txmodel.Serialize(msg)
	if err != nil {
		return "", fmt.Errorf("orchestrator: serialize: %w", err)
	}

	txid, err := node.SendTransaction(hex.EncodeToString(raw))
	if err != nil {
		return "", fmt.Errorf("orchestrator: broadcast: %w", err)
	}
	return txid, nil
}

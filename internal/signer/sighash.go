package signer

import (
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	secp_ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SighashAll is the only sighash type this system ever produces
// (spec.md §4.3).
const SighashAll byte = 0x01

// p2pkhScriptCode builds the classic OP_DUP OP_HASH160 <h160> OP_EQUALVERIFY
// OP_CHECKSIG script used as the BIP-143 script-code for a P2WPKH input
// (spec.md §4.3).
func p2pkhScriptCode(pubKeyHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pubKeyHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// Sign signs every input of an unsigned transaction whose previous outputs
// are all P2WPKH, driven by a single (keyName, path, pubkey) -- this system
// never mixes keys within one transaction, since every input spent by a
// single call belongs to either the service address or one SDB address.
//
// For each input it computes the BIP-143 sighash against the P2PKH-shaped
// script-code for the given pubkey, asks the oracle to sign that digest,
// low-S normalizes and DER-encodes the result, and assembles the P2WPKH
// witness stack.
func Sign(
	ctx context.Context,
	oracle Oracle,
	tx *wire.MsgTx,
	prevOutFetcher *txscript.MultiPrevOutFetcher,
	keyName string,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
) error {
	scriptCode, err := p2pkhScriptCode(pubKeyHash)
	if err != nil {
		return &SigningError{Kind: BadPubKey, Detail: err.Error()}
	}

	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	for i, in := range tx.TxIn {
		prevOut := prevOutFetcher.FetchPrevOutput(in.PreviousOutPoint)
		if prevOut == nil {
			return &SigningError{Kind: BadPath, Detail: "missing previous output for input"}
		}

		digestBytes, err := txscript.CalcWitnessSigHash(
			scriptCode, sigHashes, txscript.SigHashAll, tx, i, prevOut.Value,
		)
		if err != nil {
			return &SigningError{Kind: BadPath, Detail: err.Error()}
		}
		var digest [32]byte
		copy(digest[:], digestBytes)

		var der []byte
		if mock, ok := oracle.(*MockOracle); ok {
			_ = mock
			// The mock never contacts the oracle; it reports the fixed,
			// maximum-size canonical signature so fee estimation never
			// under-counts bytes (spec.md §4.3).
			der = append([]byte(nil), mockCanonicalSig...)
		} else {
			compact, err := oracle.Sign(ctx, keyName, path, digest)
			if err != nil {
				return err
			}
			der, err = compactToLowSDER(compact)
			if err != nil {
				return &SigningError{Kind: OracleReject, Detail: err.Error()}
			}
		}

		sigWithType := append(der, SighashAll)
		tx.TxIn[i].Witness = wire.TxWitness{sigWithType, pubKey[:]}
	}

	return nil
}

// compactToLowSDER converts a 64-byte compact (r,s) signature into a
// low-S-normalized DER encoding, matching what a standard Bitcoin signature
// verifier and relay policy require.
func compactToLowSDER(compact [64]byte) ([]byte, error) {
	var rBytes, sBytes [32]byte
	copy(rBytes[:], compact[:32])
	copy(sBytes[:], compact[32:])

	var r, s btcec.ModNScalar
	r.SetBytes(&rBytes)
	s.SetBytes(&sBytes)

	// Enforce low-S per BIP-62 / standardness rules: if s > N/2, replace it
	// with N - s (ModNScalar.IsOverHalfOrder + Negate does exactly this).
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	sig := secp_ecdsa.NewSignature(&r, &s)
	return sig.Serialize(), nil
}

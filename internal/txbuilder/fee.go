// Package txbuilder constructs the four canonical transaction variants --
// Send, Withdraw (inscription relay), Redeem, and Liquidate -- plus
// GasQuote, sharing a single fee-fixed-point convergence loop. Grounded on
// wallet/transaction.go's BuildTransaction/EstimateFee family in the
// teacher repo (spec.md §4.5).
package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// DefaultFeeFloorMsatPerByte is the regtest fallback applied when the node
// reports an empty fee-percentile list (spec.md §4.5).
const DefaultFeeFloorMsatPerByte uint64 = 5000

// FeePerByte resolves the effective millisats/byte fee rate: the greater
// of the caller-supplied floor and the node's reported 50th percentile,
// with DefaultFeeFloorMsatPerByte standing in for the percentile when the
// node reports nothing.
func FeePerByte(floor uint64, percentile50 uint64, percentilesAvailable bool) uint64 {
	observed := percentile50
	if !percentilesAvailable {
		observed = DefaultFeeFloorMsatPerByte
	}
	rate := floor
	if observed > rate {
		rate = observed
	}
	return rate
}

// feeForLength computes the fixed-point fee for a serialized length L at a
// given millisats/byte rate: floor(L * feePerByte / 1000).
func feeForLength(length int, feePerByte uint64) int64 {
	return int64(uint64(length) * feePerByte / 1000)
}

// buildFunc constructs an UnsignedTransaction for a candidate fee value,
// returning the structured insufficient-funds error when the candidate
// UTXO set cannot cover the target at that fee.
type buildFunc func(fee int64) (txmodel.UnsignedTransaction, error)

// converge runs the fee-fixed-point loop: build at fee=0, mock-sign, measure
// length, recompute fee, repeat until the fee stops changing. It terminates
// in a small bounded number of iterations because every additional P2WPKH
// input/output contributes a fixed, known byte count (spec.md §4.5).
const maxFeeIterations = 8

func converge(
	ctx context.Context,
	oracle signer.Oracle,
	params *chaincfg.Params,
	keyName string,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
	feePerByte uint64,
	build buildFunc,
) (txmodel.UnsignedTransaction, int64, error) {
	mock := signer.NewMockOracle(oracle)

	var fee int64
	var unsigned txmodel.UnsignedTransaction

	for i := 0; i < maxFeeIterations; i++ {
		candidate, err := build(fee)
		if err != nil {
			return txmodel.UnsignedTransaction{}, 0, err
		}
		unsigned = candidate

		msg, err := txmodel.ToWireUnsigned(unsigned, params)
		if err != nil {
			return txmodel.UnsignedTransaction{}, 0, err
		}

		script, scErr := scriptPubKeyFor(pubKeyHash, params)
		if scErr != nil {
			return txmodel.UnsignedTransaction{}, 0, scErr
		}

		prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
		for idx, in := range msg.TxIn {
			out := txWireTxOut(unsigned.Inputs[idx].ValueSats, script)
			prevOutFetcher.AddPrevOut(in.PreviousOutPoint, &out)
		}

		if err := signer.Sign(ctx, mock, msg, prevOutFetcher, keyName, path, pubKey, pubKeyHash); err != nil {
			return txmodel.UnsignedTransaction{}, 0, err
		}

		raw, err := txmodel.Serialize(msg)
		if err != nil {
			return txmodel.UnsignedTransaction{}, 0, err
		}

		newFee := feeForLength(len(raw), feePerByte)
		if newFee == fee {
			return unsigned, fee, nil
		}
		fee = newFee
	}

	return unsigned, fee, nil
}

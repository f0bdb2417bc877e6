package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// LiquidateResult is the outcome of building a liquidation payout.
type LiquidateResult struct {
	Unsigned txmodel.UnsignedTransaction
	Fee      int64
	Amount   int64
}

// Liquidate is Redeem without the inscription-return output: a pure BTC
// transfer from the debtor's SDB to the liquidator's address, signed with
// the debtor's SDB derivation path since custody of the key never leaves
// the service (spec.md §4.5 variant 4).
func Liquidate(
	ctx context.Context,
	oracle signer.Oracle,
	params *chaincfg.Params,
	keyName string,
	debtorSDBPath [][]byte,
	debtorSDBPubKey [33]byte,
	debtorSDBPubKeyHash []byte,
	debtorSDBAddress string,
	debtorFeeBearing []txmodel.Utxo,
	liquidatorAddress string,
	requestedAmount int64,
	feePerByte uint64,
) (*LiquidateResult, error) {
	var clampedAmount int64

	build := func(fee int64) (txmodel.UnsignedTransaction, error) {
		target := requestedAmount + fee
		selected, err := selector.SelectReverseOldestFirst(debtorFeeBearing, target)
		if err != nil {
			selected, err = selector.SelectReverseOldestFirst(debtorFeeBearing, fee)
			if err != nil {
				return txmodel.UnsignedTransaction{}, missingDepositFrom(err)
			}
		}

		var totalIn int64
		inputs := make([]txmodel.UnsignedInput, 0, len(selected))
		for _, u := range selected {
			inputs = append(inputs, txmodel.NewUnsignedInput(u.Outpoint, u.ValueSats))
			totalIn += u.ValueSats
		}

		clampedAmount = requestedAmount
		if totalIn-fee < clampedAmount {
			clampedAmount = totalIn - fee
		}
		if clampedAmount < 0 {
			return txmodel.UnsignedTransaction{}, &MissingDepositError{AdditionalDepositRequired: fee - totalIn}
		}

		outputs := []txmodel.TxOut{{Address: liquidatorAddress, ValueSats: clampedAmount}}
		change := totalIn - clampedAmount - fee
		if change > 0 {
			outputs = append(outputs, txmodel.TxOut{Address: debtorSDBAddress, ValueSats: change})
		}

		return txmodel.UnsignedTransaction{Inputs: inputs, Outputs: outputs}, nil
	}

	unsigned, fee, err := converge(ctx, oracle, params, keyName, debtorSDBPath, debtorSDBPubKey, debtorSDBPubKeyHash, feePerByte, build)
	if err != nil {
		return nil, err
	}
	return &LiquidateResult{Unsigned: unsigned, Fee: fee, Amount: clampedAmount}, nil
}

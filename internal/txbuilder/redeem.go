package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// RedeemResult is the outcome of building a burn-and-return transaction.
type RedeemResult struct {
	Unsigned txmodel.UnsignedTransaction
	Fee      int64
	Amount   int64 // clamped amount actually paid out
}

// Redeem burns the user's SUSD transfer-inscription (returning it to the
// service) and pays BTC from the SDB back to the user's SSI address.
// Requested amount is clamped to totalIn-fee; if totalIn < fee, selection
// itself fails with the missing-deposit error (spec.md §4.5 variant 3).
func Redeem(
	ctx context.Context,
	oracle signer.Oracle,
	params *chaincfg.Params,
	keyName string,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
	serviceAddress string,
	selectedUtxo txmodel.Utxo,
	sdbAddress string,
	sdbFeeBearing []txmodel.Utxo,
	userSSIAddress string,
	requestedAmount int64,
	feePerByte uint64,
) (*RedeemResult, error) {
	var clampedAmount int64

	build := func(fee int64) (txmodel.UnsignedTransaction, error) {
		target := requestedAmount + fee
		selected, err := selector.SelectReverseOldestFirst(sdbFeeBearing, target)
		if err != nil {
			// The requested amount may still be satisfiable at a smaller
			// clamp; fall back to covering at least the fee itself.
			selected, err = selector.SelectReverseOldestFirst(sdbFeeBearing, fee)
			if err != nil {
				return txmodel.UnsignedTransaction{}, missingDepositFrom(err)
			}
		}

		var totalIn int64
		inputs := []txmodel.UnsignedInput{
			txmodel.NewUnsignedInput(selectedUtxo.Outpoint, selectedUtxo.ValueSats),
		}
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

		outputs := []txmodel.TxOut{
			{Address: serviceAddress, ValueSats: selectedUtxo.ValueSats},
			{Address: userSSIAddress, ValueSats: clampedAmount},
		}
		change := totalIn - clampedAmount - fee
		if change > 0 {
			outputs = append(outputs, txmodel.TxOut{Address: sdbAddress, ValueSats: change})
		}

		return txmodel.UnsignedTransaction{Inputs: inputs, Outputs: outputs}, nil
	}

	unsigned, fee, err := converge(ctx, oracle, params, keyName, path, pubKey, pubKeyHash, feePerByte, build)
	if err != nil {
		return nil, err
	}
	return &RedeemResult{Unsigned: unsigned, Fee: fee, Amount: clampedAmount}, nil
}

package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// SendResult is the outcome of building a simple P2WPKH payment.
type SendResult struct {
	Unsigned txmodel.UnsignedTransaction
	Fee      int64
}

// Send builds a simple pay-to-address transaction: inputs are greedily
// selected fee-bearing UTXOs from the sender's own address; outputs are
// [{dst, amount}, {sender, change}], the change output omitted when
// change <= 0 (spec.md §4.5 variant 1).
func Send(
	ctx context.Context,
	oracle signer.Oracle,
	params *chaincfg.Params,
	keyName string,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
	senderAddress string,
	feeBearing []txmodel.Utxo,
	dst string,
	amount int64,
	feePerByte uint64,
) (*SendResult, error) {
	build := func(fee int64) (txmodel.UnsignedTransaction, error) {
		target := amount + fee
		selected, err := selector.SelectReverseOldestFirst(feeBearing, target)
		if err != nil {
			return txmodel.UnsignedTransaction{}, missingDepositFrom(err)
		}

		var totalIn int64
		inputs := make([]txmodel.UnsignedInput, 0, len(selected))
		for _, u := range selected {
			inputs = append(inputs, txmodel.NewUnsignedInput(u.Outpoint, u.ValueSats))
			totalIn += u.ValueSats
		}

		outputs := []txmodel.TxOut{{Address: dst, ValueSats: amount}}
		change := totalIn - amount - fee
		if change > 0 {
			outputs = append(outputs, txmodel.TxOut{Address: senderAddress, ValueSats: change})
		}

		return txmodel.UnsignedTransaction{Inputs: inputs, Outputs: outputs}, nil
	}

	unsigned, fee, err := converge(ctx, oracle, params, keyName, path, pubKey, pubKeyHash, feePerByte, build)
	if err != nil {
		return nil, err
	}
	return &SendResult{Unsigned: unsigned, Fee: fee}, nil
}

func missingDepositFrom(err error) error {
	if ins, ok := err.(*selector.InsufficientFundsError); ok {
		return &MissingDepositError{AdditionalDepositRequired: ins.AdditionalRequired}
	}
	return err
}

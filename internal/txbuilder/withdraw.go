package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// WithdrawResult is the outcome of building an inscription-relay
// transaction.
type WithdrawResult struct {
	Unsigned txmodel.UnsignedTransaction
	Fee      int64
}

// Withdraw relays a BRC-20 transfer-inscription UTXO held at the service
// address out to the user's SSI address, funding the fee from the
// service's other fee-bearing UTXOs. Input #0 is always the caller-
// specified inscription UTXO, since the inscription lives on the first
// sat of that input and the protocol assigns it to output #0 (spec.md
// §4.5 variant 2).
func Withdraw(
	ctx context.Context,
	oracle signer.Oracle,
	params *chaincfg.Params,
	keyName string,
	path [][]byte,
	pubKey [33]byte,
	pubKeyHash []byte,
	serviceAddress string,
	selectedUtxo txmodel.Utxo,
	serviceFeeBearing []txmodel.Utxo,
	userSSIAddress string,
	feePerByte uint64,
) (*WithdrawResult, error) {
	build := func(fee int64) (txmodel.UnsignedTransaction, error) {
		inputs := []txmodel.UnsignedInput{
			txmodel.NewUnsignedInput(selectedUtxo.Outpoint, selectedUtxo.ValueSats),
		}
		var totalIn int64

		additional, err := selector.SelectReverseOldestFirst(serviceFeeBearing, fee)
		if err != nil {
			return txmodel.UnsignedTransaction{}, missingDepositFrom(err)
		}
		for _, u := range additional {
			inputs = append(inputs, txmodel.NewUnsignedInput(u.Outpoint, u.ValueSats))
			totalIn += u.ValueSats
		}

		outputs := []txmodel.TxOut{
			{Address: userSSIAddress, ValueSats: selectedUtxo.ValueSats},
			{Address: serviceAddress, ValueSats: totalIn - fee},
		}

		return txmodel.UnsignedTransaction{Inputs: inputs, Outputs: outputs}, nil
	}

	unsigned, fee, err := converge(ctx, oracle, params, keyName, path, pubKey, pubKeyHash, feePerByte, build)
	if err != nil {
		return nil, err
	}
	return &WithdrawResult{Unsigned: unsigned, Fee: fee}, nil
}

package txbuilder

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// GasQuote runs the same fee-fixed-point convergence as Redeem but never
// returns a transaction: on success it reports 0 (the loan is coverable),
// on failure it surfaces the additional sats the caller must deposit
// (spec.md §4.5 variant 5).
func GasQuote(
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
) (additionalDepositRequired int64, err error) {
	_, err = Redeem(
		ctx, oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddress, selectedUtxo, sdbAddress, sdbFeeBearing, userSSIAddress,
		requestedAmount, feePerByte,
	)
	if err == nil {
		return 0, nil
	}
	if missing, ok := err.(*MissingDepositError); ok {
		return missing.AdditionalDepositRequired, nil
	}
	return 0, err
}

package txbuilder

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func TestLiquidateHasNoInscriptionOutput(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	debtorAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	feeBearing := []txmodel.Utxo{testUtxo(1, 50000)}

	result, err := Liquidate(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		debtorAddr, feeBearing,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 10000, 5000,
	)
	if err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
	if len(result.Unsigned.Outputs) == 0 || len(result.Unsigned.Outputs) > 2 {
		t.Fatalf("expected 1 or 2 outputs (payout [+ change]), got %d", len(result.Unsigned.Outputs))
	}
	if result.Unsigned.Outputs[0].Address != "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq" {
		t.Errorf("output #0 should target the liquidator, got %q", result.Unsigned.Outputs[0].Address)
	}
	if result.Amount != 10000 {
		t.Errorf("Amount = %d, want full requested 10000 (funds available)", result.Amount)
	}
}

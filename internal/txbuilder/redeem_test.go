package txbuilder

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func TestRedeemClampsAmountAndReturnsInscription(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)
	sdbAddr := serviceAddr // single signer/address keeps the test self-contained

	selected := testUtxo(1, 546)
	feeBearing := []txmodel.Utxo{testUtxo(2, 5000)}

	result, err := Redeem(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, sdbAddr, feeBearing,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 100000, 5000,
	)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if result.Unsigned.Outputs[0].ValueSats != selected.ValueSats {
		t.Errorf("output #0 (inscription return) = %d, want %d", result.Unsigned.Outputs[0].ValueSats, selected.ValueSats)
	}
	if result.Amount > 5000 {
		t.Errorf("clamped amount %d exceeds available funding", result.Amount)
	}
	if result.Amount <= 0 {
		t.Errorf("expected positive clamped amount, got %d", result.Amount)
	}
}

func TestRedeemFailsWhenFeeExceedsFunds(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	selected := testUtxo(1, 546)

	_, err := Redeem(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, serviceAddr, nil,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 1000, 5000,
	)
	if err == nil {
		t.Fatal("expected missing-deposit error with no fee-bearing UTXOs")
	}
	if _, ok := err.(*MissingDepositError); !ok {
		t.Fatalf("expected *MissingDepositError, got %T: %v", err, err)
	}
}

package txbuilder

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func TestWithdrawPreservesInscriptionAtOutput0(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	selected := testUtxo(1, 546)
	feeBearing := []txmodel.Utxo{testUtxo(2, 20000)}

	result, err := Withdraw(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, feeBearing,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 5000,
	)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if len(result.Unsigned.Inputs) < 1 {
		t.Fatalf("expected at least 1 input")
	}
	if result.Unsigned.Inputs[0].PreviousOutput != selected.Outpoint {
		t.Errorf("input #0 = %+v, want selected outpoint %+v", result.Unsigned.Inputs[0].PreviousOutput, selected.Outpoint)
	}
	if len(result.Unsigned.Outputs) != 2 {
		t.Fatalf("expected exactly 2 outputs, got %d", len(result.Unsigned.Outputs))
	}
	if result.Unsigned.Outputs[0].ValueSats != selected.ValueSats {
		t.Errorf("output #0 value = %d, want %d (selected_utxo.value)", result.Unsigned.Outputs[0].ValueSats, selected.ValueSats)
	}
	if result.Unsigned.Outputs[1].Address != serviceAddr {
		t.Errorf("output #1 address = %q, want service address %q", result.Unsigned.Outputs[1].Address, serviceAddr)
	}

	var additionalIn int64
	for _, in := range result.Unsigned.Inputs[1:] {
		additionalIn += in.ValueSats
	}
	want := additionalIn - result.Fee
	if result.Unsigned.Outputs[1].ValueSats != want {
		t.Errorf("output #1 value = %d, want (additional fee-bearing inputs %d) - fee %d = %d",
			result.Unsigned.Outputs[1].ValueSats, additionalIn, result.Fee, want)
	}
	if result.Unsigned.Outputs[1].ValueSats == additionalIn+selected.ValueSats-result.Fee {
		t.Errorf("output #1 value double-counts the relayed inscription's value")
	}
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	selected := testUtxo(1, 546)

	_, err := Withdraw(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, nil,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 5000,
	)
	if err == nil {
		t.Fatal("expected missing-deposit error with no fee-bearing UTXOs")
	}
	if _, ok := err.(*MissingDepositError); !ok {
		t.Fatalf("expected *MissingDepositError, got %T: %v", err, err)
	}
}

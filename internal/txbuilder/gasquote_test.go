package txbuilder

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func TestGasQuoteZeroWhenFunded(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	selected := testUtxo(1, 546)
	feeBearing := []txmodel.Utxo{testUtxo(2, 5000)}

	additional, err := GasQuote(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, serviceAddr, feeBearing,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 1000, 5000,
	)
	if err != nil {
		t.Fatalf("GasQuote: %v", err)
	}
	if additional != 0 {
		t.Errorf("additional = %d, want 0 when funds cover the request", additional)
	}
}

func TestGasQuoteReportsShortfall(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	serviceAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	selected := testUtxo(1, 546)

	additional, err := GasQuote(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		serviceAddr, selected, serviceAddr, nil,
		"bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 100000, 5000,
	)
	if err != nil {
		t.Fatalf("GasQuote: %v", err)
	}
	if additional <= 0 {
		t.Errorf("expected a positive additional-deposit-required value, got %d", additional)
	}
}

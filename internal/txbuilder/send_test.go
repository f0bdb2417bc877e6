package txbuilder

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

func testOracle(t *testing.T) (*signer.VaultOracle, string) {
	t.Helper()
	oracle := signer.NewVaultOracle()
	var root signer.RootSeed
	for i := range root {
		root[i] = byte(i + 1)
	}
	oracle.SetRoot("test-key", root)
	return oracle, "test-key"
}

func derivedAddress(t *testing.T, oracle signer.Oracle, keyName string, path [][]byte, params *chaincfg.Params) (string, [33]byte, []byte) {
	t.Helper()
	pub, err := oracle.PublicKey(context.Background(), keyName, path)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	hash := ssi.PubKeyHash(pub)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, params)
	if err != nil {
		t.Fatalf("address: %v", err)
	}
	return addr.EncodeAddress(), pub, hash
}

func testUtxo(n int, value int64) txmodel.Utxo {
	var txid [32]byte
	txid[0] = byte(n)
	return txmodel.Utxo{Outpoint: txmodel.Outpoint{Txid: txid, Vout: 0}, ValueSats: value}
}

func TestSendConverges(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams

	path := [][]byte{[]byte("owner")}
	senderAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	utxos := []txmodel.Utxo{testUtxo(1, 50000)}

	result, err := Send(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		senderAddr, utxos, "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 10000, 5000,
	)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if result.Fee <= 0 {
		t.Errorf("expected positive fee, got %d", result.Fee)
	}
	if len(result.Unsigned.Outputs) != 2 {
		t.Fatalf("expected 2 outputs (dst + change), got %d", len(result.Unsigned.Outputs))
	}
	if result.Unsigned.Outputs[0].ValueSats != 10000 {
		t.Errorf("dst output = %d, want 10000", result.Unsigned.Outputs[0].ValueSats)
	}
	wantChange := 50000 - 10000 - result.Fee
	if result.Unsigned.Outputs[1].ValueSats != wantChange {
		t.Errorf("change output = %d, want %d", result.Unsigned.Outputs[1].ValueSats, wantChange)
	}
}

func TestSendInsufficientFunds(t *testing.T) {
	oracle, keyName := testOracle(t)
	params := &chaincfg.RegressionNetParams
	path := [][]byte{[]byte("owner")}
	senderAddr, pubKey, pubKeyHash := derivedAddress(t, oracle, keyName, path, params)

	utxos := []txmodel.Utxo{testUtxo(1, 1000)}

	_, err := Send(
		context.Background(), oracle, params, keyName, path, pubKey, pubKeyHash,
		senderAddr, utxos, "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", 10000, 5000,
	)
	if err == nil {
		t.Fatal("expected missing-deposit error")
	}
	if _, ok := err.(*MissingDepositError); !ok {
		t.Fatalf("expected *MissingDepositError, got %T: %v", err, err)
	}
}

func TestClassifyExcludesDustFromSend(t *testing.T) {
	utxos := []txmodel.Utxo{testUtxo(1, 546), testUtxo(2, 10000)}
	feeBearing, inscriptions := selector.Classify(utxos)
	if len(feeBearing) != 1 || feeBearing[0].ValueSats != 10000 {
		t.Errorf("unexpected fee-bearing set: %+v", feeBearing)
	}
	if len(inscriptions) != 1 || inscriptions[0].ValueSats != 546 {
		t.Errorf("unexpected inscription set: %+v", inscriptions)
	}
}

package signer

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

func testVaultOracle(t *testing.T) (*VaultOracle, string) {
	t.Helper()
	oracle := NewVaultOracle()
	var root RootSeed
	for i := range root {
		root[i] = byte(i + 1)
	}
	oracle.SetRoot("test-key", root)
	return oracle, "test-key"
}

func pubKeyHashFor(t *testing.T, pub [33]byte) []byte {
	t.Helper()
	return btcutil.Hash160(pub[:])
}

func buildSpendableTx(t *testing.T, prevValue int64, prevPkScript []byte) (*wire.MsgTx, *txscript.MultiPrevOutFetcher) {
	t.Helper()
	prevHash := chainhash.Hash{}
	prevOut := wire.NewOutPoint(&prevHash, 0)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(prevOut, nil, nil))
	tx.AddTxOut(wire.NewTxOut(40000, []byte{txscript.OP_TRUE}))

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	fetcher.AddPrevOut(*prevOut, &wire.TxOut{Value: prevValue, PkScript: prevPkScript})
	return tx, fetcher
}

func TestSignProducesValidWitnessSignature(t *testing.T) {
	oracle, keyName := testVaultOracle(t)
	path := [][]byte{[]byte("owner")}

	pub, err := oracle.PublicKey(context.Background(), keyName, path)
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	pubKeyHash := pubKeyHashFor(t, pub)

	scriptCode, err := p2pkhScriptCode(pubKeyHash)
	if err != nil {
		t.Fatalf("p2pkhScriptCode() error = %v", err)
	}

	tx, fetcher := buildSpendableTx(t, 50000, scriptCode)

	if err := Sign(context.Background(), oracle, tx, fetcher, keyName, path, pub, pubKeyHash); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	witness := tx.TxIn[0].Witness
	if len(witness) != 2 {
		t.Fatalf("witness stack length = %d, want 2", len(witness))
	}
	sigWithType := witness[0]
	if sigWithType[len(sigWithType)-1] != SighashAll {
		t.Errorf("sighash type byte = %x, want %x", sigWithType[len(sigWithType)-1], SighashAll)
	}

	sig, err := ecdsa.ParseDERSignature(sigWithType[:len(sigWithType)-1])
	if err != nil {
		t.Fatalf("signature is not valid DER: %v", err)
	}

	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	digestBytes, err := txscript.CalcWitnessSigHash(scriptCode, sigHashes, txscript.SigHashAll, tx, 0, 50000)
	if err != nil {
		t.Fatalf("CalcWitnessSigHash() error = %v", err)
	}

	pubKeyParsed, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		t.Fatalf("ParsePubKey() error = %v", err)
	}
	if !sig.Verify(digestBytes, pubKeyParsed) {
		t.Error("Sign() produced a signature that does not verify against the BIP-143 digest")
	}
}

func TestSignLowSNormalizes(t *testing.T) {
	oracle, keyName := testVaultOracle(t)
	path := [][]byte{[]byte("owner")}

	pub, err := oracle.PublicKey(context.Background(), keyName, path)
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	pubKeyHash := pubKeyHashFor(t, pub)
	scriptCode, err := p2pkhScriptCode(pubKeyHash)
	if err != nil {
		t.Fatalf("p2pkhScriptCode() error = %v", err)
	}
	tx, fetcher := buildSpendableTx(t, 50000, scriptCode)

	if err := Sign(context.Background(), oracle, tx, fetcher, keyName, path, pub, pubKeyHash); err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	sigWithType := tx.TxIn[0].Witness[0]
	sig, err := ecdsa.ParseDERSignature(sigWithType[:len(sigWithType)-1])
	if err != nil {
		t.Fatalf("signature is not valid DER: %v", err)
	}

	s := sig.S()
	if s.IsOverHalfOrder() {
		t.Error("Sign() did not produce a low-S normalized signature")
	}
}

func TestMockOracleNeverContactsRealOracleForSignatures(t *testing.T) {
	real, keyName := testVaultOracle(t)
	mock := NewMockOracle(real)
	path := [][]byte{[]byte("owner")}

	pub, err := mock.PublicKey(context.Background(), keyName, path)
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	pubKeyHash := pubKeyHashFor(t, pub)
	scriptCode, err := p2pkhScriptCode(pubKeyHash)
	if err != nil {
		t.Fatalf("p2pkhScriptCode() error = %v", err)
	}
	tx, fetcher := buildSpendableTx(t, 50000, scriptCode)

	if err := Sign(context.Background(), mock, tx, fetcher, keyName, path, pub, pubKeyHash); err != nil {
		t.Fatalf("Sign() with mock oracle error = %v", err)
	}

	witness := tx.TxIn[0].Witness
	if len(witness) != 2 {
		t.Fatalf("witness stack length = %d, want 2", len(witness))
	}
	if len(witness[0]) != DERSize() {
		t.Errorf("mock-signed witness sig length = %d, want DERSize() = %d", len(witness[0]), DERSize())
	}
}

func TestCompactToLowSDERRoundTrip(t *testing.T) {
	oracle, keyName := testVaultOracle(t)
	var digest [32]byte
	for i := range digest {
		digest[i] = byte(i * 3)
	}

	compact, err := oracle.Sign(context.Background(), keyName, [][]byte{[]byte("owner")}, digest)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	der, err := compactToLowSDER(compact)
	if err != nil {
		t.Fatalf("compactToLowSDER() error = %v", err)
	}
	if _, err := ecdsa.ParseDERSignature(der); err != nil {
		t.Errorf("compactToLowSDER() produced invalid DER: %v", err)
	}
	if len(der) > 72 {
		t.Errorf("compactToLowSDER() length = %d, exceeds 72-byte canonical max", len(der))
	}
}

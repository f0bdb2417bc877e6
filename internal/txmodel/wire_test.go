package txmodel

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
)

func TestReverseTxidIsInvolution(t *testing.T) {
	var txid [32]byte
	for i := range txid {
		txid[i] = byte(i)
	}
	if ReverseTxid(ReverseTxid(txid)) != txid {
		t.Error("ReverseTxid(ReverseTxid(x)) != x")
	}
}

func TestParseTxidRoundTrip(t *testing.T) {
	const hexTxid = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	txid, err := ParseTxid(hexTxid)
	if err != nil {
		t.Fatalf("ParseTxid() error = %v", err)
	}
	if len(txid) != 32 {
		t.Fatalf("ParseTxid() length = %d, want 32", len(txid))
	}
	if got := (Outpoint{Txid: txid}).String(); got != hexTxid+":0" {
		t.Errorf("ParseTxid() did not round trip: got %s, want %s:0", got, hexTxid)
	}
}

func TestParseTxidRejectsWrongLength(t *testing.T) {
	if _, err := ParseTxid("aabb"); err == nil {
		t.Error("ParseTxid() should reject a short hex string")
	}
	if _, err := ParseTxid("not-hex"); err == nil {
		t.Error("ParseTxid() should reject invalid hex")
	}
}

func TestUnsignedSerializeDeserializeRoundTrip(t *testing.T) {
	params := &chaincfg.RegressionNetParams

	txid, err := ParseTxid("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseTxid: %v", err)
	}

	unsigned := UnsignedTransaction{
		Inputs: []UnsignedInput{
			NewUnsignedInput(Outpoint{Txid: txid, Vout: 0}, 50000),
		},
		Outputs: []TxOut{
			{Address: "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", ValueSats: 10000},
		},
	}

	msg, err := ToWireUnsigned(unsigned, params)
	if err != nil {
		t.Fatalf("ToWireUnsigned() error = %v", err)
	}

	raw, err := Serialize(msg)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	parsed, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	rawAgain, err := Serialize(parsed)
	if err != nil {
		t.Fatalf("Serialize() (2nd pass) error = %v", err)
	}
	if !bytes.Equal(raw, rawAgain) {
		t.Error("parse(serialize(tx)) != serialize(tx): round trip not stable")
	}
}

func TestTxidStableAcrossSerializeDeserialize(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	txid, err := ParseTxid("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseTxid: %v", err)
	}

	unsigned := UnsignedTransaction{
		Inputs:  []UnsignedInput{NewUnsignedInput(Outpoint{Txid: txid, Vout: 0}, 50000)},
		Outputs: []TxOut{{Address: "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", ValueSats: 10000}},
	}

	msg, err := ToWireUnsigned(unsigned, params)
	if err != nil {
		t.Fatalf("ToWireUnsigned() error = %v", err)
	}

	before := Txid(msg)

	raw, err := Serialize(msg)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	parsed, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("Deserialize() error = %v", err)
	}

	after := Txid(parsed)
	if before != after {
		t.Errorf("txid changed across serialize/deserialize round trip: %x vs %x", before, after)
	}
}

func TestWtxidDiffersFromTxidWhenWitnessed(t *testing.T) {
	params := &chaincfg.RegressionNetParams
	txid, err := ParseTxid("00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")
	if err != nil {
		t.Fatalf("ParseTxid: %v", err)
	}

	signed := SignedTransaction{
		Inputs: []SignedInput{
			{
				PreviousOutput: Outpoint{Txid: txid, Vout: 0},
				ValueSats:      50000,
				Sequence:       0xFFFFFFFF,
				Signature:      bytes.Repeat([]byte{0x01}, 71),
				PubKey:         [33]byte{0x02},
			},
		},
		Outputs: []TxOut{{Address: "bcrt1qq6lkrc77nlfdtcytzhwhpc4ewhqvcjj76smhdq", ValueSats: 10000}},
	}

	msg, err := ToWireSigned(signed, params)
	if err != nil {
		t.Fatalf("ToWireSigned() error = %v", err)
	}

	if Txid(msg) == Wtxid(msg) {
		t.Error("Txid and Wtxid should differ for a witnessed transaction")
	}
}

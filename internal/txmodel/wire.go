package txmodel

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// ToWireUnsigned converts a pure UnsignedTransaction into a wire.MsgTx with
// empty witnesses, resolving each output address against params.
func ToWireUnsigned(tx UnsignedTransaction, params *chaincfg.Params) (*wire.MsgTx, error) {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.LockTime = tx.LockTime

	for _, in := range tx.Inputs {
		hash, err := chainhash.NewHash(ReverseTxid(in.PreviousOutput.Txid)[:])
		if err != nil {
			return nil, fmt.Errorf("txmodel: invalid input txid: %w", err)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.PreviousOutput.Vout), nil, nil)
		txIn.Sequence = in.Sequence
		msg.AddTxIn(txIn)
	}

	for _, out := range tx.Outputs {
		pkScript, err := addressScript(out.Address, params)
		if err != nil {
			return nil, err
		}
		msg.AddTxOut(wire.NewTxOut(out.ValueSats, pkScript))
	}

	return msg, nil
}

// ToWireSigned converts a SignedTransaction into a fully witnessed wire.MsgTx.
func ToWireSigned(tx SignedTransaction, params *chaincfg.Params) (*wire.MsgTx, error) {
	msg := wire.NewMsgTx(wire.TxVersion)
	msg.LockTime = tx.LockTime

	for _, in := range tx.Inputs {
		hash, err := chainhash.NewHash(ReverseTxid(in.PreviousOutput.Txid)[:])
		if err != nil {
			return nil, fmt.Errorf("txmodel: invalid input txid: %w", err)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.PreviousOutput.Vout), nil, nil)
		txIn.Sequence = in.Sequence
		txIn.Witness = wire.TxWitness{in.Signature, in.PubKey[:]}
		msg.AddTxIn(txIn)
	}

	for _, out := range tx.Outputs {
		pkScript, err := addressScript(out.Address, params)
		if err != nil {
			return nil, err
		}
		msg.AddTxOut(wire.NewTxOut(out.ValueSats, pkScript))
	}

	return msg, nil
}

func addressScript(address string, params *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("txmodel: invalid address %q: %w", address, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("txmodel: cannot build script for %q: %w", address, err)
	}
	return script, nil
}

// Serialize returns the full (witness-included) wire-format bytes.
func Serialize(msg *wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("txmodel: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize parses wire-format bytes (with or without witness data) back
// into a wire.MsgTx, for the round-trip property in spec.md §8.
func Deserialize(raw []byte) (*wire.MsgTx, error) {
	msg := wire.NewMsgTx(wire.TxVersion)
	if err := msg.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("txmodel: deserialize: %w", err)
	}
	return msg, nil
}

// Txid returns the non-witness double-SHA-256 transaction id, in canonical
// big-endian byte order (spec.md §3). chainhash.Hash stores bytes in
// wire/little-endian order internally, so the result is reversed on the
// way out.
func Txid(msg *wire.MsgTx) [32]byte {
	h := msg.TxHash()
	var internal [32]byte
	copy(internal[:], h[:])
	return ReverseTxid(internal)
}

// Wtxid returns the witness-included double-SHA-256 transaction id, in
// canonical big-endian byte order.
func Wtxid(msg *wire.MsgTx) [32]byte {
	h := msg.WitnessHash()
	var internal [32]byte
	copy(internal[:], h[:])
	return ReverseTxid(internal)
}

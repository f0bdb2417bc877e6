// Package txmodel holds the pure data types for Bitcoin transactions this
// system builds and signs: Outpoint, Utxo, UnsignedTransaction,
// SignedTransaction, and their wire conversion and serialization, shared by
// internal/signer and internal/txbuilder (spec.md §3, §4.2).
package txmodel

import (
	"encoding/hex"
	"fmt"
)

// Outpoint identifies a previous transaction output. Txid is stored and
// compared in canonical big-endian; wire fetches return reversed
// (little-endian wire-order) bytes and MUST be reversed on ingest
// (spec.md §3).
type Outpoint struct {
	Txid [32]byte
	Vout uint32
}

// ReverseTxid returns the little-endian (wire-order) byte representation
// of a big-endian txid, and vice versa -- the operation is its own
// inverse.
func ReverseTxid(txid [32]byte) [32]byte {
	var out [32]byte
	for i := range txid {
		out[i] = txid[31-i]
	}
	return out
}

// ParseTxid decodes a conventional display-form txid hex string (the same
// big-endian order block explorers and this package's Outpoint.Txid both
// use) into its 32-byte form.
func ParseTxid(hexTxid string) ([32]byte, error) {
	raw, err := hex.DecodeString(hexTxid)
	if err != nil {
		return [32]byte{}, fmt.Errorf("txmodel: invalid txid hex %q: %w", hexTxid, err)
	}
	if len(raw) != 32 {
		return [32]byte{}, fmt.Errorf("txmodel: txid %q is not 32 bytes", hexTxid)
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

// String renders an outpoint as "txid:vout" in canonical big-endian hex,
// the stable key used to track whether a deposit has already been folded
// into the ledger (spec.md §4.7, "Deposit confirmed").
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", hex.EncodeToString(o.Txid[:]), o.Vout)
}

// Utxo is an unspent transaction output as returned by the BTC node RPC.
type Utxo struct {
	Outpoint            Outpoint
	ValueSats           int64
	ConfirmationsHeight uint32
}

const defaultSequence uint32 = 0xFFFFFFFF

// UnsignedInput is an input that has not yet been signed.
type UnsignedInput struct {
	PreviousOutput Outpoint
	ValueSats      int64
	Sequence       uint32
}

// NewUnsignedInput builds an input with the default (final, no-RBF)
// sequence number, matching spec.md §3's UnsignedInput default.
func NewUnsignedInput(prevOut Outpoint, value int64) UnsignedInput {
	return UnsignedInput{PreviousOutput: prevOut, ValueSats: value, Sequence: defaultSequence}
}

// TxOut is a transaction output: a destination address (as a decoded
// btcutil.Address is too concrete for this pure-data layer, so the encoded
// string is kept here and resolved to a script by the builder) and value.
type TxOut struct {
	Address   string
	ValueSats int64
}

// UnsignedTransaction is the pure, not-yet-signed transaction shape shared
// by every txbuilder variant.
type UnsignedTransaction struct {
	Inputs   []UnsignedInput
	Outputs  []TxOut
	LockTime uint32
}

// SignedInput carries the witness data produced by internal/signer: a
// SEC1 DER-encoded signature with its sighash-type byte appended, and the
// 33-byte compressed pubkey used to produce it.
type SignedInput struct {
	PreviousOutput Outpoint
	ValueSats      int64
	Sequence       uint32
	Signature      []byte // DER + sighash type byte
	PubKey         [33]byte
}

// SignedTransaction is the fully signed transaction, ready for
// serialization and broadcast.
type SignedTransaction struct {
	Inputs   []SignedInput
	Outputs  []TxOut
	LockTime uint32
}

// Package signer implements remote threshold-ECDSA signing: BIP-143 sighash
// construction, oracle invocation, DER/witness assembly, and a mock signer
// used only to predict signed-transaction size for fee estimation
// (spec.md §4.3).
package signer

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Oracle is the external threshold-ECDSA facility from spec.md §6: given a
// key name and a derivation path, it returns a compressed public key or a
// compact (r,s) signature over a 32-byte digest. No implementation of this
// interface may return a private scalar across the boundary -- that is
// the entire point of modeling it as a remote oracle rather than a local
// keyring, even when (as in VaultOracle) the "remote" oracle is in fact
// seal-wrapped storage inside the same process.
type Oracle interface {
	PublicKey(ctx context.Context, keyName string, path [][]byte) ([33]byte, error)
	Sign(ctx context.Context, keyName string, path [][]byte, digest [32]byte) ([64]byte, error)
}

// SigningError is returned by Sign/PublicKey failures, per spec.md §4.3.
type SigningError struct {
	Kind   SigningErrorKind
	Detail string
}

type SigningErrorKind int

const (
	OracleReject SigningErrorKind = iota
	BadPubKey
	BadPath
)

func (e *SigningError) Error() string {
	var kind string
	switch e.Kind {
	case OracleReject:
		kind = "oracle_reject"
	case BadPubKey:
		kind = "bad_pubkey"
	case BadPath:
		kind = "bad_path"
	default:
		kind = "unknown"
	}
	if e.Detail == "" {
		return fmt.Sprintf("signer: %s", kind)
	}
	return fmt.Sprintf("signer: %s: %s", kind, e.Detail)
}

// hashPath is a convenience used by oracle implementations that need a
// stable cache key for a derivation path.
func hashPath(path [][]byte) [32]byte {
	h := sha256.New()
	for _, p := range path {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

package ssi

import "crypto/sha256"

// Canonical subaccount nonces (spec.md §3).
const (
	NonceWallet    uint8 = 0 // legacy/reserved: user wallet view
	NonceSDB       uint8 = 1 // collateral vault and loan-principal ledger
	NonceAvailable uint8 = 2 // available/claimable SUSD
	NonceIssued    uint8 = 3 // BRC-20 issued tally (shadow of on-chain inscriptions)
)

// accountIDDomainTag is prepended to the SSI bytes before hashing, mirroring
// the length-prefixed domain-separation tag convention ("\x0Account-Id")
// used throughout ICRC-1-style subaccount derivation.
var accountIDDomainTag = []byte("\x0Account-Id")

// Subaccount computes the 32-byte subaccount identifier for (ssi, nonce).
//
// DESIGN.md Open Question 1 fixes the exact combinator: the nonce byte is
// appended after the SSI bytes, then the whole buffer is hashed once. This
// keeps Subaccount a pure function of its inputs, deterministic across
// nodes and calls, and collision-free across the four canonical nonces for
// any given SSI.
func Subaccount(nonce uint8, ssi string) [32]byte {
	h := sha256.New()
	h.Write(accountIDDomainTag)
	h.Write([]byte(ssi))
	h.Write([]byte{nonce})
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DerivationPath builds the ordered byte-string path handed verbatim to
// the threshold-ECDSA oracle: [owner, subaccount, ssi]. It is deterministic,
// collision-free across users, and independent of network (spec.md §3).
func DerivationPath(ctx Context, ssi string, subaccount [32]byte) [][]byte {
	path := make([][]byte, 0, 3)
	path = append(path, append([]byte(nil), ctx.OwnerBytes...))
	path = append(path, append([]byte(nil), subaccount[:]...))
	path = append(path, []byte(ssi))
	return path
}

// SDBDerivationPath is the convenience composition used for the per-user
// Safety Deposit Box: nonce=1 subaccount, then the generic derivation path.
func SDBDerivationPath(ctx Context, ssi string) [][]byte {
	return DerivationPath(ctx, ssi, Subaccount(NonceSDB, ssi))
}

// WalletDerivationPath is the nonce=0 composition used for the address a
// user receives relayed BRC-20 inscriptions and redeemed BTC at -- the
// "user wallet view" subaccount (spec.md §3).
func WalletDerivationPath(ctx Context, ssi string) [][]byte {
	return DerivationPath(ctx, ssi, Subaccount(NonceWallet, ssi))
}

// ServiceDerivationPath is the empty path used for the service's own
// "minter" address (spec.md §4.1: "derive with an empty path", literally --
// not owner-only). ctx is accepted for symmetry with the other
// *DerivationPath constructors but is unused.
func ServiceDerivationPath(ctx Context) [][]byte {
	return [][]byte{}
}

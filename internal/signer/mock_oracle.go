package signer

import "context"

// mockCanonicalSig is a fixed, syntactically valid low-S DER signature used
// only to predict signed-transaction byte length. 71 bytes is the maximum a
// low-S canonical DER-encoded (r,s) pair can occupy (30 + 2x(02 len value)
// with r at its 33-byte worst case; a low-S s never needs the leading zero
// pad, so it stays at 32 bytes), or 72 bytes with the sighash-type byte
// appended; real low-S signatures are at most that long, so MockOracle
// always reports the conservative upper bound and the
// fee-fixed-point loop converges against it (spec.md §4.3, §4.5).
var mockCanonicalSig = []byte{
	0x30, 0x45, 0x02, 0x21, 0x00,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00,
	0x02, 0x20,
	0x7f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// MockOracle returns a fixed, never-broadcast signature without contacting
// the real oracle; used only to size transactions during the fee loop in
// internal/txbuilder. Its public key responses must come from the real
// oracle it wraps -- estimating fee sizes never guesses at key material.
type MockOracle struct {
	Real Oracle
}

func NewMockOracle(real Oracle) *MockOracle {
	return &MockOracle{Real: real}
}

func (m *MockOracle) PublicKey(ctx context.Context, keyName string, path [][]byte) ([33]byte, error) {
	return m.Real.PublicKey(ctx, keyName, path)
}

func (m *MockOracle) Sign(_ context.Context, _ string, _ [][]byte, _ [32]byte) ([64]byte, error) {
	var out [64]byte
	// Compact signatures are exactly 64 bytes, but MockOracle's purpose is
	// to control the *DER-encoded* size downstream (see Sign in sighash.go),
	// so the compact payload's content is irrelevant; the fixed
	// mockCanonicalSig that Sign substitutes is what actually drives size
	// estimation.
	return out, nil
}

// DERSize returns the byte length a mock-signed P2WPKH witness signature
// occupies. internal/txbuilder sizes transactions by actually mock-signing
// and measuring rather than by this closed-form byte count (see DESIGN.md),
// so DERSize is exercised only by internal/signer/sighash_test.go, which
// asserts MockOracle's fixed signature serializes to exactly this length.
func DERSize() int {
	return len(mockCanonicalSig) + 1 // +1 for the sighash type byte
}

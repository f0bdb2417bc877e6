package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// RootSeed is the service's threshold-ECDSA root secret. In production this
// would live behind an actual MPC/threshold signing ceremony; here it is
// the seal-wrapped secret Vault never discloses, matching backend.go's
// SealWrapStorage("config") idiom extended to a per-deployment
// signing root (spec.md §4.1: "no user private key ever exists" because
// only the service's own key is ever used, and only derived children of it
// at that).
type RootSeed [32]byte

// VaultOracle implements Oracle using deterministic child-key derivation
// from a seal-wrapped root, keyed by key name. It never returns a private
// scalar across the Oracle interface -- only public keys and signatures.
type VaultOracle struct {
	mu    sync.RWMutex
	roots map[string]RootSeed // keyName -> root seed
}

// NewVaultOracle constructs an oracle with no roots loaded; call SetRoot to
// provision a key name (normally done once at plugin configuration time
// from seal-wrapped storage).
func NewVaultOracle() *VaultOracle {
	return &VaultOracle{roots: make(map[string]RootSeed)}
}

// SetRoot provisions the root seed backing a key name. Mainnet and
// testnet/signet deployments MUST use distinct key names so they never
// share a root (spec.md §4.1).
func (v *VaultOracle) SetRoot(keyName string, root RootSeed) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.roots[keyName] = root
}

func (v *VaultOracle) rootFor(keyName string) (RootSeed, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.roots[keyName]
	return r, ok
}

// derive walks the path, deriving a child scalar from the root via
// HMAC-SHA512 chaining over arbitrary-length path elements (a BIP32-style
// non-hardened derivation generalized from uint32 indices to the
// byte-string path elements spec.md §3 specifies).
func (v *VaultOracle) derive(keyName string, path [][]byte) (*btcec.PrivateKey, error) {
	root, ok := v.rootFor(keyName)
	if !ok {
		return nil, &SigningError{Kind: BadPath, Detail: "unknown key_name " + keyName}
	}

	curveOrder := btcec.S256().N

	scalar := new(big.Int).SetBytes(root[:])
	scalar.Mod(scalar, curveOrder)
	if scalar.Sign() == 0 {
		return nil, &SigningError{Kind: BadPath, Detail: "degenerate root scalar"}
	}
	chainCode := sha512.Sum512(append([]byte("syron-root-chain-code"), root[:]...))
	cc := chainCode[:32]

	for _, elem := range path {
		privKey, _ := btcec.PrivKeyFromBytes(scalar.Bytes())
		pub := privKey.PubKey().SerializeCompressed()

		mac := hmac.New(sha512.New, cc)
		mac.Write(pub)
		mac.Write(elem)
		sum := mac.Sum(nil)

		tweak := new(big.Int).SetBytes(sum[:32])
		tweak.Mod(tweak, curveOrder)
		scalar.Add(scalar, tweak)
		scalar.Mod(scalar, curveOrder)
		if scalar.Sign() == 0 {
			return nil, &SigningError{Kind: BadPath, Detail: "derived to identity, path rejected"}
		}
		cc = sum[32:]
	}

	priv, _ := btcec.PrivKeyFromBytes(scalar.Bytes())
	return priv, nil
}

func (v *VaultOracle) PublicKey(_ context.Context, keyName string, path [][]byte) ([33]byte, error) {
	priv, err := v.derive(keyName, path)
	if err != nil {
		return [33]byte{}, err
	}
	var out [33]byte
	copy(out[:], priv.PubKey().SerializeCompressed())
	return out, nil
}

func (v *VaultOracle) Sign(_ context.Context, keyName string, path [][]byte, digest [32]byte) ([64]byte, error) {
	priv, err := v.derive(keyName, path)
	if err != nil {
		return [64]byte{}, err
	}

	sig, err := ecdsa.SignCompact(priv, digest[:], false)
	if err != nil {
		return [64]byte{}, &SigningError{Kind: OracleReject, Detail: err.Error()}
	}
	// ecdsa.SignCompact prefixes the 64-byte (r,s) with a 1-byte recovery
	// header; strip it to match the oracle's documented 64-byte reply.
	var out [64]byte
	copy(out[:], sig[1:])
	return out, nil
}

package ssi

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
)

// PubKeyHash returns the hash160 of a compressed pubkey (RIPEMD-160 of
// SHA-256), the P2WPKH witness program (spec.md §4.1).
func PubKeyHash(pubKey [33]byte) []byte {
	return btcutil.Hash160(pubKey[:])
}

// p2wpkhAddress builds OP_0 <hash160(pubkey)> for the configured network.
func p2wpkhAddress(pubKey [33]byte, ctx Context) (*btcutil.AddressWitnessPubKeyHash, error) {
	params, err := Params(ctx.Network)
	if err != nil {
		return nil, err
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(PubKeyHash(pubKey), params)
	if err != nil {
		return nil, fmt.Errorf("ssi: building P2WPKH address: %w", err)
	}
	return addr, nil
}

// ServiceAddress derives the "minter" P2WPKH address: the service's own
// root key with an empty derivation path, used both to hold service-level
// fee UTXOs and as the address users target when inscribing BRC-20
// transfers to the service (spec.md §4.1).
func ServiceAddress(c context.Context, ctx Context, oracle signer.Oracle) (*btcutil.AddressWitnessPubKeyHash, [33]byte, error) {
	path := ServiceDerivationPath(ctx)
	pub, err := oracle.PublicKey(c, ctx.KeyName, path)
	if err != nil {
		return nil, [33]byte{}, err
	}
	addr, err := p2wpkhAddress(pub, ctx)
	if err != nil {
		return nil, [33]byte{}, err
	}
	return addr, pub, nil
}

// SDBAddress derives a given SSI's Safety Deposit Box address: nonce=1
// subaccount composed into the derivation path, then derived exactly like
// ServiceAddress (spec.md §4.1).
func SDBAddress(c context.Context, ctx Context, oracle signer.Oracle, ssi string) (*btcutil.AddressWitnessPubKeyHash, [33]byte, error) {
	path := SDBDerivationPath(ctx, ssi)
	pub, err := oracle.PublicKey(c, ctx.KeyName, path)
	if err != nil {
		return nil, [33]byte{}, err
	}
	addr, err := p2wpkhAddress(pub, ctx)
	if err != nil {
		return nil, [33]byte{}, err
	}
	return addr, pub, nil
}

// WalletAddress derives a given SSI's wallet address: nonce=0 subaccount,
// the destination relayed BRC-20 inscriptions and redeemed BTC land at
// (spec.md §3, §4.5).
func WalletAddress(c context.Context, ctx Context, oracle signer.Oracle, ssi string) (*btcutil.AddressWitnessPubKeyHash, [33]byte, error) {
	path := WalletDerivationPath(ctx, ssi)
	pub, err := oracle.PublicKey(c, ctx.KeyName, path)
	if err != nil {
		return nil, [33]byte{}, err
	}
	addr, err := p2wpkhAddress(pub, ctx)
	if err != nil {
		return nil, [33]byte{}, err
	}
	return addr, pub, nil
}

package ssi

import "testing"

func TestSubaccountDeterministic(t *testing.T) {
	ssi := "tb1p4w59p7nxggc56lg79v7cwh4c8emtudjrtetgasfy5j3q9r4ug9zsuwhykc"

	a := Subaccount(NonceSDB, ssi)
	b := Subaccount(NonceSDB, ssi)
	if a != b {
		t.Errorf("Subaccount() not deterministic: %x vs %x", a, b)
	}
	if len(a) != 32 {
		t.Errorf("Subaccount() length = %d, want 32", len(a))
	}
}

func TestSubaccountNoncesCollisionFree(t *testing.T) {
	ssi := "ssi-alice"
	seen := map[[32]byte]uint8{}
	for _, nonce := range []uint8{NonceWallet, NonceSDB, NonceAvailable, NonceIssued} {
		sub := Subaccount(nonce, ssi)
		if prev, ok := seen[sub]; ok {
			t.Fatalf("nonce %d collides with nonce %d for the same SSI", nonce, prev)
		}
		seen[sub] = nonce
	}
}

func TestSubaccountVariesBySSI(t *testing.T) {
	a := Subaccount(NonceSDB, "ssi-alice")
	b := Subaccount(NonceSDB, "ssi-bob")
	if a == b {
		t.Error("Subaccount() returned same value for different SSIs at the same nonce")
	}
}

func TestDerivationPathShape(t *testing.T) {
	ctx := Context{OwnerBytes: []byte("syron-canister")}
	ssi := "ssi-alice"
	sub := Subaccount(NonceSDB, ssi)

	path := DerivationPath(ctx, ssi, sub)
	if len(path) != 3 {
		t.Fatalf("DerivationPath() length = %d, want 3", len(path))
	}
	if string(path[0]) != "syron-canister" {
		t.Errorf("DerivationPath()[0] = %q, want owner bytes", path[0])
	}
	if [32]byte(path[1][:32]) != sub {
		t.Errorf("DerivationPath()[1] = %x, want subaccount %x", path[1], sub)
	}
	if string(path[2]) != ssi {
		t.Errorf("DerivationPath()[2] = %q, want ssi %q", path[2], ssi)
	}
}

func TestServiceDerivationPathIsEmpty(t *testing.T) {
	ctx := Context{OwnerBytes: []byte("syron-canister")}
	path := ServiceDerivationPath(ctx)
	if len(path) != 0 {
		t.Fatalf("ServiceDerivationPath() length = %d, want 0 (spec.md §4.1: derive with an empty path)", len(path))
	}
}

func TestSDBAndWalletDerivationPathsDiffer(t *testing.T) {
	ctx := Context{OwnerBytes: []byte("syron-canister")}
	ssi := "ssi-alice"

	sdb := SDBDerivationPath(ctx, ssi)
	wallet := WalletDerivationPath(ctx, ssi)

	if string(sdb[1]) == string(wallet[1]) {
		t.Error("SDB and wallet derivation paths must use distinct subaccounts")
	}
}

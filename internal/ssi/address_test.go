package ssi

import (
	"context"
	"strings"
	"testing"

	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
)

func testOracle(t *testing.T, keyName string) *signer.VaultOracle {
	t.Helper()
	o := signer.NewVaultOracle()
	var root signer.RootSeed
	copy(root[:], []byte(keyName+"-deterministic-test-root-seed!!"))
	o.SetRoot(keyName, root)
	return o
}

func TestSDBAddressDeterminism(t *testing.T) {
	oracle := testOracle(t, "syron-testnet")
	ctx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}
	ssi := "tb1p4w59p7nxggc56lg79v7cwh4c8emtudjrtetgasfy5j3q9r4ug9zsuwhykc"

	addr1, pub1, err := SDBAddress(context.Background(), ctx, oracle, ssi)
	if err != nil {
		t.Fatalf("SDBAddress() error = %v", err)
	}
	addr2, pub2, err := SDBAddress(context.Background(), ctx, oracle, ssi)
	if err != nil {
		t.Fatalf("SDBAddress() error = %v", err)
	}

	if addr1.EncodeAddress() != addr2.EncodeAddress() {
		t.Errorf("SDBAddress() not deterministic: %q vs %q", addr1.EncodeAddress(), addr2.EncodeAddress())
	}
	if pub1 != pub2 {
		t.Errorf("SDBAddress() pubkey not deterministic")
	}
	if !strings.HasPrefix(addr1.EncodeAddress(), "tb1q") {
		t.Errorf("SDBAddress() = %q, want tb1q prefix on testnet", addr1.EncodeAddress())
	}
}

func TestSDBAddressVariesBySSI(t *testing.T) {
	oracle := testOracle(t, "syron-testnet")
	ctx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}

	addrA, _, err := SDBAddress(context.Background(), ctx, oracle, "ssi-alice")
	if err != nil {
		t.Fatalf("SDBAddress(alice) error = %v", err)
	}
	addrB, _, err := SDBAddress(context.Background(), ctx, oracle, "ssi-bob")
	if err != nil {
		t.Fatalf("SDBAddress(bob) error = %v", err)
	}

	if addrA.EncodeAddress() == addrB.EncodeAddress() {
		t.Error("SDBAddress() returned same address for different SSIs")
	}
}

func TestSDBAddressDiffersFromWalletAndServiceAddress(t *testing.T) {
	oracle := testOracle(t, "syron-testnet")
	ctx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}
	ssi := "ssi-alice"

	sdb, _, err := SDBAddress(context.Background(), ctx, oracle, ssi)
	if err != nil {
		t.Fatalf("SDBAddress() error = %v", err)
	}
	wallet, _, err := WalletAddress(context.Background(), ctx, oracle, ssi)
	if err != nil {
		t.Fatalf("WalletAddress() error = %v", err)
	}
	service, _, err := ServiceAddress(context.Background(), ctx, oracle)
	if err != nil {
		t.Fatalf("ServiceAddress() error = %v", err)
	}

	addrs := []string{sdb.EncodeAddress(), wallet.EncodeAddress(), service.EncodeAddress()}
	for i := range addrs {
		for j := i + 1; j < len(addrs); j++ {
			if addrs[i] == addrs[j] {
				t.Errorf("expected distinct addresses per nonce, got duplicate %q", addrs[i])
			}
		}
	}
}

func TestServiceAddressIndependentOfSSI(t *testing.T) {
	// ServiceAddress derives with an empty per-user path (spec.md §4.1); it
	// must not vary with any SSI since no SSI is ever consulted.
	oracle := testOracle(t, "syron-testnet")
	ctx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}

	addr1, _, err := ServiceAddress(context.Background(), ctx, oracle)
	if err != nil {
		t.Fatalf("ServiceAddress() error = %v", err)
	}
	addr2, _, err := ServiceAddress(context.Background(), ctx, oracle)
	if err != nil {
		t.Fatalf("ServiceAddress() error = %v", err)
	}
	if addr1.EncodeAddress() != addr2.EncodeAddress() {
		t.Errorf("ServiceAddress() not deterministic: %q vs %q", addr1.EncodeAddress(), addr2.EncodeAddress())
	}
}

func TestSDBAddressMainnetPrefix(t *testing.T) {
	oracle := testOracle(t, "syron-mainnet")
	ctx := Context{Network: Mainnet, KeyName: "syron-mainnet", OwnerBytes: []byte("syron-canister")}

	addr, _, err := SDBAddress(context.Background(), ctx, oracle, "ssi-alice")
	if err != nil {
		t.Fatalf("SDBAddress() error = %v", err)
	}
	if !strings.HasPrefix(addr.EncodeAddress(), "bc1q") {
		t.Errorf("SDBAddress() = %q, want bc1q prefix on mainnet", addr.EncodeAddress())
	}
}

func TestSDBAddressDistinctKeyNamesNeverCollide(t *testing.T) {
	// spec.md §4.1: signet/mainnet MUST use distinct key-ids; a testnet key
	// must never be reused for mainnet. Two independently-rooted oracles
	// (simulating two distinct key names) must not coincidentally agree.
	mainOracle := testOracle(t, "syron-mainnet")
	testOracle2 := testOracle(t, "syron-testnet")

	mainCtx := Context{Network: Mainnet, KeyName: "syron-mainnet", OwnerBytes: []byte("syron-canister")}
	testCtx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}

	_, mainPub, err := SDBAddress(context.Background(), mainCtx, mainOracle, "ssi-alice")
	if err != nil {
		t.Fatalf("SDBAddress(mainnet) error = %v", err)
	}
	_, testPub, err := SDBAddress(context.Background(), testCtx, testOracle2, "ssi-alice")
	if err != nil {
		t.Fatalf("SDBAddress(testnet) error = %v", err)
	}

	if mainPub == testPub {
		t.Error("distinct key names produced identical pubkeys for the same SSI")
	}
}

func TestPubKeyHashLength(t *testing.T) {
	oracle := testOracle(t, "syron-testnet")
	ctx := Context{Network: Testnet, KeyName: "syron-testnet", OwnerBytes: []byte("syron-canister")}

	_, pub, err := SDBAddress(context.Background(), ctx, oracle, "ssi-alice")
	if err != nil {
		t.Fatalf("SDBAddress() error = %v", err)
	}
	h := PubKeyHash(pub)
	if len(h) != 20 {
		t.Errorf("PubKeyHash() length = %d, want 20", len(h))
	}
}

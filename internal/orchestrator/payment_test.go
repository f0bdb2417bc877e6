package orchestrator

import (
	"context"
	"testing"

	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/leases"
)

func testOrchestrator() *Orchestrator {
	return &Orchestrator{
		Storage: &logical.InmemStorage{},
		Leases:  leases.NewManager(),
	}
}

func TestPaymentMovesLedgerBalance(t *testing.T) {
	o := testOrchestrator()
	ctx := context.Background()

	if err := ledger.DepositConfirmed(ctx, o.Storage, "ssi-a", 1_000_000, ledger.GovernanceParams{LTV: 1, OraclePriceRateE9: 1_000_000_000}); err != nil {
		t.Fatalf("seed ssi-a: %v", err)
	}

	if err := o.Payment(ctx, "ssi-a", "ssi-b", 400_000); err != nil {
		t.Fatalf("Payment: %v", err)
	}

	if got := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, "ssi-a", ledger.NonceAvailable); got != 600_000 {
		t.Errorf("sender available = %d, want 600000", got)
	}
	if got := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, "ssi-b", ledger.NonceAvailable); got != 400_000 {
		t.Errorf("recipient available = %d, want 400000", got)
	}
}

func TestPaymentFailsOnInsufficientBalance(t *testing.T) {
	o := testOrchestrator()
	ctx := context.Background()

	err := o.Payment(ctx, "ssi-a", "ssi-b", 1_000)
	if err == nil {
		t.Fatal("expected error for insufficient balance")
	}
	opErr, ok := err.(*OperationError)
	if !ok {
		t.Fatalf("expected *OperationError, got %T: %v", err, err)
	}
	if opErr.Code != ErrPaymentInsufficientBalance {
		t.Errorf("error code = %d, want %d", opErr.Code, ErrPaymentInsufficientBalance)
	}
}

func TestPaymentRejectsInvalidArgsBeforeTouchingLedger(t *testing.T) {
	o := testOrchestrator()
	ctx := context.Background()

	cases := []struct {
		name      string
		sender    string
		recipient string
		amount    uint64
	}{
		{"zero amount", "ssi-a", "ssi-b", 0},
		{"self payment", "ssi-a", "ssi-a", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := o.Payment(ctx, tc.sender, tc.recipient, tc.amount)
			opErr, ok := err.(*OperationError)
			if !ok {
				t.Fatalf("expected *OperationError, got %T: %v", err, err)
			}
			if opErr.Code != ErrPaymentInvalidArgs {
				t.Errorf("error code = %d, want %d", opErr.Code, ErrPaymentInvalidArgs)
			}
		})
	}
}

func TestPaymentReleasesLeaseOnSuccess(t *testing.T) {
	o := testOrchestrator()
	ctx := context.Background()

	if err := ledger.DepositConfirmed(ctx, o.Storage, "ssi-a", 1_000_000, ledger.GovernanceParams{LTV: 1, OraclePriceRateE9: 1_000_000_000}); err != nil {
		t.Fatalf("seed ssi-a: %v", err)
	}

	if err := o.Payment(ctx, "ssi-a", "ssi-b", 100_000); err != nil {
		t.Fatalf("first Payment: %v", err)
	}
	if err := o.Payment(ctx, "ssi-a", "ssi-b", 100_000); err != nil {
		t.Fatalf("second Payment after release: %v", err)
	}
}

func TestPaymentReleasesLeaseOnFailure(t *testing.T) {
	o := testOrchestrator()
	ctx := context.Background()

	if err := o.Payment(ctx, "ssi-a", "ssi-b", 1_000); err == nil {
		t.Fatal("expected insufficient-balance error")
	}

	// A failed Payment must still release ssi-a's lease; otherwise every
	// SSI that ever attempts an overdrawn payment would be locked out
	// permanently.
	release, err := o.Leases.Acquire("ssi-a")
	if err != nil {
		t.Fatalf("Acquire after failed Payment: %v", err)
	}
	release()
}

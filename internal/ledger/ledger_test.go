package ledger

import (
	"context"
	"testing"

	"github.com/hashicorp/vault/sdk/logical"
)

func TestDepositConfirmedMintsSUSD(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()
	gov := GovernanceParams{LTV: 2, OraclePriceRateE9: 10_000_000_000}

	if err := DepositConfirmed(ctx, s, "ssi-1", 100_000, gov); err != nil {
		t.Fatalf("DepositConfirmed: %v", err)
	}

	btc1 := BalanceOf(ctx, s, BTC, "ssi-1", NonceSDB)
	if btc1 != 100_000 {
		t.Errorf("BTC[1] = %d, want 100000", btc1)
	}

	susd2 := BalanceOf(ctx, s, SUSD, "ssi-1", NonceAvailable)
	wantMinted := (uint64(100_000) * gov.OraclePriceRateE9) / (gov.LTV * 1_000_000_000)
	if susd2 != wantMinted {
		t.Errorf("SUSD[2] = %d, want %d", susd2, wantMinted)
	}

	loan := BalanceOf(ctx, s, SUSD, "ssi-1", NonceSDB)
	if loan != wantMinted {
		t.Errorf("SUSD[1] (loan principal) = %d, want %d", loan, wantMinted)
	}
}

func TestWithdrawMintTransferDrainsToZero(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	if err := setBalance(ctx, s, "ssi-1", SUSD, NonceAvailable, 1_500_000); err != nil {
		t.Fatalf("setBalance: %v", err)
	}

	if err := WithdrawMintTransfer(ctx, s, "ssi-1", 1_000_000); err != nil {
		t.Fatalf("WithdrawMintTransfer: %v", err)
	}

	if got := BalanceOf(ctx, s, SUSD, "ssi-1", NonceAvailable); got != 0 {
		t.Errorf("SUSD[2] after drain = %d, want 0", got)
	}
	if got := BalanceOf(ctx, s, SUSD, "ssi-1", NonceIssued); got != 1_500_000 {
		t.Errorf("SUSD[3] after drain = %d, want 1500000 (the whole remainder)", got)
	}
}

func TestWithdrawMintTransferNormalDebit(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	if err := setBalance(ctx, s, "ssi-1", SUSD, NonceAvailable, 10_000_000); err != nil {
		t.Fatalf("setBalance: %v", err)
	}

	if err := WithdrawMintTransfer(ctx, s, "ssi-1", 1_000_000); err != nil {
		t.Fatalf("WithdrawMintTransfer: %v", err)
	}

	if got := BalanceOf(ctx, s, SUSD, "ssi-1", NonceAvailable); got != 9_000_000 {
		t.Errorf("SUSD[2] = %d, want 9000000", got)
	}
	if got := BalanceOf(ctx, s, SUSD, "ssi-1", NonceIssued); got != 1_000_000 {
		t.Errorf("SUSD[3] = %d, want 1000000", got)
	}
}

func TestWithinSlack(t *testing.T) {
	if !WithinSlack(9_500_000, 10_000_000, SlackSats) {
		t.Error("9500000 should be within slack of loan 10000000")
	}
	if WithinSlack(7_000_000, 10_000_000, SlackSats) {
		t.Error("7000000 should be outside slack of loan 10000000")
	}
}

func TestCollateralRatioDefaultsWhenZero(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	cr, err := CollateralRatioBps(ctx, s, "ssi-1", false, GovernanceParams{})
	if err != nil {
		t.Fatalf("CollateralRatioBps: %v", err)
	}
	if cr != DefaultCollateralRatioBps {
		t.Errorf("cr = %d, want default %d", cr, DefaultCollateralRatioBps)
	}
}

func TestCollateralRatioDummyMode(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	if err := setBalance(ctx, s, "ssi-1", BTC, NonceSDB, 100); err != nil {
		t.Fatalf("setBalance btc: %v", err)
	}
	if err := setBalance(ctx, s, "ssi-1", SUSD, NonceSDB, 100); err != nil {
		t.Fatalf("setBalance susd: %v", err)
	}

	cr, err := CollateralRatioBps(ctx, s, "ssi-1", true, GovernanceParams{})
	if err != nil {
		t.Fatalf("CollateralRatioBps: %v", err)
	}
	if cr != 115 {
		t.Errorf("dummy cr = %d, want 115 (1.15x with equal balances)", cr)
	}
}

func TestPaymentMovesAvailableBalance(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	if err := setBalance(ctx, s, "ssi-a", SUSD, NonceAvailable, 5_000_000); err != nil {
		t.Fatalf("setBalance: %v", err)
	}

	if err := Payment(ctx, s, "ssi-a", "ssi-b", 2_000_000); err != nil {
		t.Fatalf("Payment: %v", err)
	}

	if got := BalanceOf(ctx, s, SUSD, "ssi-a", NonceAvailable); got != 3_000_000 {
		t.Errorf("sender balance = %d, want 3000000", got)
	}
	if got := BalanceOf(ctx, s, SUSD, "ssi-b", NonceAvailable); got != 2_000_000 {
		t.Errorf("recipient balance = %d, want 2000000", got)
	}
}

func TestPaymentFailsOnInsufficientBalance(t *testing.T) {
	s := &logical.InmemStorage{}
	ctx := context.Background()

	if err := Payment(ctx, s, "ssi-a", "ssi-b", 1_000); err == nil {
		t.Fatal("expected error for insufficient balance")
	}
}

// Package ledger implements the four-subaccount-per-SSI balance model
// (BTC[1], SUSD[1..3]) and its transitions, grounded on address_storage.go's
// storage-prefix-per-entity idiom in the teacher repo for the storage
// shape and on original_source/lib.rs (mint, withdraw_susd, redeem_btc,
// liquidate) for the transition semantics (spec.md §4.7).
package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hashicorp/vault/sdk/logical"
)

// Asset identifies which of the two ledgers a balance belongs to.
type Asset string

const (
	BTC  Asset = "btc"
	SUSD Asset = "susd"
)

// Canonical nonces, mirroring internal/ssi's subaccount numbering.
const (
	NonceWallet    uint64 = 0
	NonceSDB       uint64 = 1
	NonceAvailable uint64 = 2
	NonceIssued    uint64 = 3
)

// SlackSats is the tolerance window the Withdraw and Redeem transitions
// allow between the requested/inscribed amount and the ledger-recorded
// balance or loan, matching original_source/lib.rs's `2_000_000` (2 cents
// at 1 cent = 1_000_000 satoshi-scaled SUSD units).
const SlackSats uint64 = 2_000_000

// LiquidationThresholdBps is the collateral-ratio floor, in basis points,
// below which a position becomes liquidatable (spec.md §4.7).
const LiquidationThresholdBps uint64 = 12_000

// DefaultCollateralRatioBps is reported whenever either side of the ratio
// is zero, matching spec.md §4.7's "report cr = 15 000 (150%)" fallback.
const DefaultCollateralRatioBps uint64 = 15_000

func storageKey(ssi string, asset Asset, nonce uint64) string {
	return fmt.Sprintf("ledger/%s/%s/%d", asset, ssi, nonce)
}

func depositCreditedKey(ssi, outpoint string) string {
	return fmt.Sprintf("ledger/credited/%s/%s", ssi, outpoint)
}

// IsDepositCredited reports whether a given outpoint (formatted "txid:vout")
// at ssi's SDB has already been folded into B[BTC,1] by DepositConfirmed,
// the idempotency check that makes repeated deposit-reconciliation passes
// over the same UTXO set safe (spec.md §C7: "the double-spend-safe ledger
// update that follows a confirmed transfer").
func IsDepositCredited(ctx context.Context, s logical.Storage, ssi, outpoint string) (bool, error) {
	entry, err := s.Get(ctx, depositCreditedKey(ssi, outpoint))
	if err != nil {
		return false, fmt.Errorf("ledger: read credited marker %s/%s: %w", ssi, outpoint, err)
	}
	return entry != nil, nil
}

// MarkDepositCredited records that an outpoint has been credited, so a
// later reconciliation pass skips it.
func MarkDepositCredited(ctx context.Context, s logical.Storage, ssi, outpoint string) error {
	entry, err := logical.StorageEntryJSON(depositCreditedKey(ssi, outpoint), true)
	if err != nil {
		return fmt.Errorf("ledger: encode credited marker %s/%s: %w", ssi, outpoint, err)
	}
	return s.Put(ctx, entry)
}

// GovernanceParams are the constants a deployment configures for minting
// and pricing; LTV and OraclePriceRateE9 are both governance-set, matching
// spec.md §4.7's "LTV is a governance constant" and "oracle_price is the
// BTC/USD rate".
type GovernanceParams struct {
	// LTV is the loan-to-value divisor used when minting against a new
	// confirmed deposit: minted = floor(value * oracle_price / LTV).
	LTV uint64
	// OraclePriceRateE9 is the BTC/USD rate scaled by 1e9 (spec.md §4.7:
	// "price = oracle_rate / 10^9").
	OraclePriceRateE9 uint64
}

// getBalance reads a balance, defaulting to zero when unset.
func getBalance(ctx context.Context, s logical.Storage, ssi string, asset Asset, nonce uint64) (uint64, error) {
	entry, err := s.Get(ctx, storageKey(ssi, asset, nonce))
	if err != nil {
		return 0, fmt.Errorf("ledger: read %s[%s,%d]: %w", ssi, asset, nonce, err)
	}
	if entry == nil {
		return 0, nil
	}
	var bal uint64
	if err := entry.DecodeJSON(&bal); err != nil {
		return 0, fmt.Errorf("ledger: decode %s[%s,%d]: %w", ssi, asset, nonce, err)
	}
	return bal, nil
}

func setBalance(ctx context.Context, s logical.Storage, ssi string, asset Asset, nonce uint64, bal uint64) error {
	entry, err := logical.StorageEntryJSON(storageKey(ssi, asset, nonce), bal)
	if err != nil {
		return fmt.Errorf("ledger: encode %s[%s,%d]: %w", ssi, asset, nonce, err)
	}
	return s.Put(ctx, entry)
}

// BalanceOf exposes a single nonce's balance for the susd_balance_of /
// sbtc_balance_of Vault paths (spec.md §6). Never returns an error to the
// caller -- an unreadable balance is reported as zero, matching the
// original's balance_of().unwrap_or(0) idiom.
func BalanceOf(ctx context.Context, s logical.Storage, asset Asset, ssi string, nonce uint64) uint64 {
	bal, err := getBalance(ctx, s, ssi, asset, nonce)
	if err != nil {
		return 0
	}
	return bal
}

// saturatingAdd adds b to a without overflowing past math.MaxUint64,
// matching the "saturating arithmetic" resilience-to-stale-reads rule in
// spec.md §5.
func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// DepositConfirmed credits a new confirmed on-chain UTXO at the SDB and,
// when the resulting collateral crosses the configured LTV, mints SUSD
// into the available balance (spec.md §4.7, "Deposit confirmed").
//
// The minted amount is also recorded as loan principal at SUSD[1]: spec.md
// §3 documents nonce 1 as "SDB (collateral vault AND loan-principal
// ledger)" and §4.7's Redeem/Liquidate transitions both read `loan =
// B[SUSD,1]`, but no transition in §4.7 is ever named as the one that sets
// it -- the mint-against-collateral step is the only place new debt can
// originate, so crediting SUSD[1] alongside SUSD[2] here is the reading
// that makes `loan` ever become nonzero outside of direct storage seeding.
// This resolves the otherwise-unaddressed gap; see DESIGN.md.
func DepositConfirmed(ctx context.Context, s logical.Storage, ssi string, valueSats uint64, gov GovernanceParams) error {
	btc1, err := getBalance(ctx, s, ssi, BTC, NonceSDB)
	if err != nil {
		return err
	}
	if err := setBalance(ctx, s, ssi, BTC, NonceSDB, saturatingAdd(btc1, valueSats)); err != nil {
		return err
	}

	if gov.LTV == 0 {
		return nil
	}
	// minted = floor(value * oracle_rate / (LTV * 1e9)); computed over
	// big.Int, matching CollateralRatioBps, so the value*oracle_rate
	// product never overflows uint64.
	num := new(big.Int).SetUint64(valueSats)
	num.Mul(num, new(big.Int).SetUint64(gov.OraclePriceRateE9))
	den := new(big.Int).SetUint64(gov.LTV)
	den.Mul(den, big.NewInt(1_000_000_000))
	minted := new(big.Int).Quo(num, den).Uint64()
	if minted == 0 {
		return nil
	}
	susd2, err := getBalance(ctx, s, ssi, SUSD, NonceAvailable)
	if err != nil {
		return err
	}
	if err := setBalance(ctx, s, ssi, SUSD, NonceAvailable, saturatingAdd(susd2, minted)); err != nil {
		return err
	}
	loan, err := getBalance(ctx, s, ssi, SUSD, NonceSDB)
	if err != nil {
		return err
	}
	return setBalance(ctx, s, ssi, SUSD, NonceSDB, saturatingAdd(loan, minted))
}

// WithdrawMintTransfer debits the user's available SUSD and credits
// issued, draining the remainder to zero when what's left would fall
// below SlackSats (spec.md §4.7, "Withdraw (mint transfer)").
func WithdrawMintTransfer(ctx context.Context, s logical.Storage, ssi string, inscribed uint64) error {
	susd2, err := getBalance(ctx, s, ssi, SUSD, NonceAvailable)
	if err != nil {
		return err
	}
	susd3, err := getBalance(ctx, s, ssi, SUSD, NonceIssued)
	if err != nil {
		return err
	}

	remainder := saturatingSub(susd2, inscribed)
	if remainder < SlackSats {
		// Drain-to-zero: the whole remaining available balance moves to
		// issued rather than leaving unusable dust behind.
		if err := setBalance(ctx, s, ssi, SUSD, NonceIssued, saturatingAdd(susd3, susd2)); err != nil {
			return err
		}
		return setBalance(ctx, s, ssi, SUSD, NonceAvailable, 0)
	}

	if err := setBalance(ctx, s, ssi, SUSD, NonceIssued, saturatingAdd(susd3, inscribed)); err != nil {
		return err
	}
	return setBalance(ctx, s, ssi, SUSD, NonceAvailable, remainder)
}

// WithinSlack reports whether amt falls within [loan-slack, loan+slack],
// the tolerance window withdraw/redeem verification checks against
// indexer-reported inscription amounts (spec.md §4.7).
func WithinSlack(amt, loan, slack uint64) bool {
	lower := saturatingSub(loan, slack)
	upper := saturatingAdd(loan, slack)
	return amt >= lower && amt <= upper
}

// RetireLoanAfterRedeem zeros the BTC collateral and the SUSD loan
// recorded at the SDB, the reconciliation step run after a successful
// Redeem broadcast (spec.md §4.7, "then re-run deposit-reconciliation
// which zeros B[BTC,1] and retires the loan").
func RetireLoanAfterRedeem(ctx context.Context, s logical.Storage, ssi string) error {
	if err := setBalance(ctx, s, ssi, BTC, NonceSDB, 0); err != nil {
		return err
	}
	return setBalance(ctx, s, ssi, SUSD, NonceSDB, 0)
}

// Payment moves an internal SUSD amount between two SSIs' available
// balances (spec.md §4.7, "Payment").
func Payment(ctx context.Context, s logical.Storage, sender, recipient string, amount uint64) error {
	senderBal, err := getBalance(ctx, s, sender, SUSD, NonceAvailable)
	if err != nil {
		return err
	}
	if senderBal < amount {
		return fmt.Errorf("ledger: sender %q has insufficient SUSD[2] balance (%d < %d)", sender, senderBal, amount)
	}
	recipientBal, err := getBalance(ctx, s, recipient, SUSD, NonceAvailable)
	if err != nil {
		return err
	}

	if err := setBalance(ctx, s, sender, SUSD, NonceAvailable, senderBal-amount); err != nil {
		return err
	}
	return setBalance(ctx, s, recipient, SUSD, NonceAvailable, saturatingAdd(recipientBal, amount))
}

// CollateralRatioBps computes the basis-point collateral ratio for an
// SSI's SDB. When dummy is true it uses the synthetic simulation formula
// (spec.md §4.7: "a dummy synthetic floor(1.15*SUSD[1]/BTC[1])... used in
// simulation"), avoiding any live oracle call; otherwise it uses the real
// oracle-priced formula.
func CollateralRatioBps(ctx context.Context, s logical.Storage, ssi string, dummy bool, gov GovernanceParams) (uint64, error) {
	btc1, err := getBalance(ctx, s, ssi, BTC, NonceSDB)
	if err != nil {
		return 0, err
	}
	susd1, err := getBalance(ctx, s, ssi, SUSD, NonceSDB)
	if err != nil {
		return 0, err
	}
	if btc1 == 0 || susd1 == 0 {
		return DefaultCollateralRatioBps, nil
	}

	if dummy {
		// Scaled by 100 (not 10,000 like the real bps formula) so the
		// 1.15 factor survives integer truncation with two significant
		// digits of headroom -- this is a client-preview value, never
		// compared against LiquidationThresholdBps.
		return (115 * susd1) / btc1, nil
	}

	// cr = floor(btc1 * oracle_rate * 10_000 / (susd1 * 1e9)); computed in
	// one division over big.Int so the intermediate product never
	// overflows uint64 and no double-flooring perturbs the result.
	num := new(big.Int).SetUint64(btc1)
	num.Mul(num, new(big.Int).SetUint64(gov.OraclePriceRateE9))
	num.Mul(num, big.NewInt(10_000))

	den := new(big.Int).SetUint64(susd1)
	den.Mul(den, big.NewInt(1_000_000_000))

	cr := new(big.Int).Quo(num, den)
	return cr.Uint64(), nil
}

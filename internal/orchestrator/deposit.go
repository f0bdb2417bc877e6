package orchestrator

import (
	"context"
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
)

// ReconcileDeposits is the "Deposit confirmed" transition (spec.md §4.7,
// `update_ssi_balance`): it re-fetches an SSI's SDB UTXOs, credits
// B[BTC,1] (and, once the configured LTV crosses, mints SUSD[2]) for every
// UTXO that has reached the configured confirmation depth and has not
// already been folded into the ledger, and returns the total newly
// credited sats. Grounded on original_source/lib.rs's call to
// `update_ssi_balance` ahead of `mint` inside `withdraw_susd` -- the same
// reconciliation this repo runs at the top of GetSyron before it trusts
// B[SUSD,2] for the withdrawal check.
//
// Idempotency across repeated calls (the Orchestrator may reconcile the
// same SDB many times as new blocks arrive) comes from
// ledger.IsDepositCredited/MarkDepositCredited keyed per-outpoint, not from
// any assumption that this is called at most once per UTXO.
func (o *Orchestrator) ReconcileDeposits(ctx context.Context, ssiID string) (uint64, error) {
	params, err := ssi.Params(o.Context.Network)
	if err != nil {
		return 0, err
	}
	sdbAddr, sdbPubKey, err := ssi.SDBAddress(ctx, o.Context, o.Oracle, ssiID)
	if err != nil {
		return 0, err
	}
	script, err := scriptPubKeyFor(ssi.PubKeyHash(sdbPubKey), params)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: reconcile deposits: %w", err)
	}

	utxos, err := o.BTC.GetUtxos(script)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: reconcile deposits: fetch utxos for %s: %w", sdbAddr.EncodeAddress(), err)
	}

	tip, err := o.BTC.GetTipHeight()
	if err != nil {
		return 0, fmt.Errorf("orchestrator: reconcile deposits: tip height: %w", err)
	}

	var totalCredited uint64
	for _, u := range utxos {
		if u.ConfirmationsHeight == 0 {
			continue // unconfirmed, nothing to credit yet
		}
		confirmations := tip - int64(u.ConfirmationsHeight) + 1
		if confirmations < int64(o.Context.MinConfirmations) {
			continue
		}

		outpoint := u.Outpoint.String()
		credited, err := ledger.IsDepositCredited(ctx, o.Storage, ssiID, outpoint)
		if err != nil {
			return totalCredited, fmt.Errorf("orchestrator: reconcile deposits: %w", err)
		}
		if credited {
			continue
		}

		if err := ledger.DepositConfirmed(ctx, o.Storage, ssiID, uint64(u.ValueSats), o.Gov); err != nil {
			return totalCredited, fmt.Errorf("orchestrator: reconcile deposits: credit %s: %w", outpoint, err)
		}
		if err := ledger.MarkDepositCredited(ctx, o.Storage, ssiID, outpoint); err != nil {
			return totalCredited, fmt.Errorf("orchestrator: reconcile deposits: mark %s credited: %w", outpoint, err)
		}
		totalCredited += uint64(u.ValueSats)
	}

	return totalCredited, nil
}

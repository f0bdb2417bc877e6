package orchestrator

import (
	"context"
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txbuilder"
)

// LiquidationResult carries both txids the atomic liquidation sequence
// produces (spec.md §4.7, "Both txids returned").
type LiquidationResult struct {
	RelayTxid  string
	BTCTxid    string
	SeizedSats uint64
}

// Liquidation seizes a debtor's collateral once their position's
// collateral ratio has fallen to or below ledger.LiquidationThresholdBps.
// The liquidator proves they have covered the debt by inscribing SUSD
// worth at least the debtor's outstanding loan at their own SDB; the
// atomic sequence is (a) relay that inscription to the service, then
// (b) pay the debtor's full BTC collateral to the liquidator (spec.md
// §4.7, "Liquidate").
//
// Step (a) reuses txbuilder.Withdraw: its shape -- relay input #0 intact
// to a named value-preserving destination, fund the fee from a named
// UTXO pool, return change to a named address -- is exactly the shape
// needed here with the service and liquidator roles swapped relative to
// a user withdrawal (see DESIGN.md).
func (o *Orchestrator) Liquidation(ctx context.Context, debtorSSI, liquidatorSSI, txid string, providerID uint32) (*LiquidationResult, error) {
	var result *LiquidationResult

	err := o.acquire(debtorSSI, func() error {
		cr, cerr := ledger.CollateralRatioBps(ctx, o.Storage, debtorSSI, false, o.Gov)
		if cerr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, cerr)
		}
		if cr > ledger.LiquidationThresholdBps {
			return liquidateErr(ErrLiquidateRatioTooHigh, fmt.Errorf("collateral ratio %d bps exceeds liquidation threshold %d bps", cr, ledger.LiquidationThresholdBps))
		}

		loan := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, debtorSSI, ledger.NonceSDB)
		if loan == 0 {
			return liquidateErr(ErrLiquidateRatioTooHigh, fmt.Errorf("debtor %q has no outstanding loan", debtorSSI))
		}
		collateral := ledger.BalanceOf(ctx, o.Storage, ledger.BTC, debtorSSI, ledger.NonceSDB)
		if collateral == 0 {
			return liquidateErr(ErrLiquidateRatioTooHigh, fmt.Errorf("debtor %q has no collateral to seize", debtorSSI))
		}

		// Step: Prep.
		params, perr := ssi.Params(o.Context.Network)
		if perr != nil {
			return perr
		}
		serviceAddr, _, perr := ssi.ServiceAddress(ctx, o.Context, o.Oracle)
		if perr != nil {
			return perr
		}
		liquidatorSDBAddr, liqPubKey, perr := ssi.SDBAddress(ctx, o.Context, o.Oracle, liquidatorSSI)
		if perr != nil {
			return perr
		}
		liqPubKeyHash := ssi.PubKeyHash(liqPubKey)
		liquidatorSDBPath := ssi.SDBDerivationPath(o.Context, liquidatorSSI)
		liquidatorWalletAddr, _, lerr := ssi.WalletAddress(ctx, o.Context, o.Oracle, liquidatorSSI)
		if lerr != nil {
			return lerr
		}
		debtorSDBAddr, debtorPubKey, perr := ssi.SDBAddress(ctx, o.Context, o.Oracle, debtorSSI)
		if perr != nil {
			return perr
		}
		debtorPubKeyHash := ssi.PubKeyHash(debtorPubKey)
		debtorSDBPath := ssi.SDBDerivationPath(o.Context, debtorSSI)

		// Step: verify the liquidator's covering inscription via the
		// indexer bridge, at the liquidator's own SDB.
		info, ierr := o.Indexer.InscriptionInfo(ctx, o.Registry, providerID, txid)
		if ierr != nil {
			return liquidateErr(ErrLiquidateUndercovered, ierr)
		}
		if info.HolderAddress != liquidatorSDBAddr.EncodeAddress() {
			return liquidateErr(ErrLiquidateUndercovered, fmt.Errorf("inscription holder %q does not match liquidator SDB %q", info.HolderAddress, liquidatorSDBAddr.EncodeAddress()))
		}
		covering, berr := o.Indexer.BRC20Info(ctx, o.Registry, providerID, liquidatorSDBAddr.EncodeAddress())
		if berr != nil {
			return liquidateErr(ErrLiquidateUndercovered, berr)
		}
		if covering.AmountSats < loan {
			return liquidateErr(ErrLiquidateUndercovered, fmt.Errorf("covering inscription %d is less than debtor loan %d", covering.AmountSats, loan))
		}

		feePerByte, ferr := o.feePerByte()
		if ferr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, ferr)
		}

		// Step: FetchUtxos + Build + Sign + Broadcast (a): relay the
		// liquidator's covering inscription to the service.
		liquidatorScript, serr := scriptPubKeyFor(liqPubKeyHash, params)
		if serr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, serr)
		}
		liquidatorUtxos, ferr := o.BTC.GetUtxos(liquidatorScript)
		if ferr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, fmt.Errorf("fetch liquidator utxos: %w", ferr))
		}
		coveringUtxo, found := findUtxo(liquidatorUtxos, txid, 0)
		if !found {
			return liquidateErr(ErrLiquidateBuildOrSettle, fmt.Errorf("covering inscription utxo %s:0 not found at liquidator SDB", txid))
		}
		liquidatorFeeBearing, _ := selector.ClassifyWithThreshold(liquidatorUtxos, o.Context.DustThresholdSats)

		relayBuilt, berr2 := txbuilder.Withdraw(
			ctx, o.Oracle, params, o.Context.KeyName, liquidatorSDBPath, liqPubKey, liqPubKeyHash,
			liquidatorSDBAddr.EncodeAddress(), coveringUtxo, liquidatorFeeBearing, serviceAddr.EncodeAddress(), feePerByte,
		)
		if berr2 != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, berr2)
		}

		if err := o.putPendingCommit(ctx, PendingCommit{SSI: debtorSSI, Operation: "liquidate_relay", Txid: txid, Amount: covering.AmountSats}); err != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, err)
		}
		relayTxid, serr := signAndBroadcast(ctx, o.Oracle, o.BTC, relayBuilt.Unsigned, liquidatorSDBPath, liqPubKey, liqPubKeyHash, signingParams{Params: params, KeyName: o.Context.KeyName})
		if serr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, serr)
		}
		if err := o.clearPendingCommit(ctx, debtorSSI, "liquidate_relay"); err != nil {
			o.log().Warn("liquidate: relay pending commit persisted past successful settle", "ssi", debtorSSI, "error", err)
		}

		// Step: FetchUtxos + Build + Sign + Broadcast (b): pay the
		// debtor's full collateral to the liquidator.
		debtorScript, serr2 := scriptPubKeyFor(debtorPubKeyHash, params)
		if serr2 != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, serr2)
		}
		debtorUtxos, ferr := o.BTC.GetUtxos(debtorScript)
		if ferr != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, fmt.Errorf("fetch debtor utxos: %w", ferr))
		}
		debtorFeeBearing, _ := selector.ClassifyWithThreshold(debtorUtxos, o.Context.DustThresholdSats)

		btcBuilt, berr3 := txbuilder.Liquidate(
			ctx, o.Oracle, params, o.Context.KeyName, debtorSDBPath, debtorPubKey, debtorPubKeyHash,
			debtorSDBAddr.EncodeAddress(), debtorFeeBearing, liquidatorWalletAddr.EncodeAddress(), int64(collateral), feePerByte,
		)
		if berr3 != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, berr3)
		}

		if err := o.putPendingCommit(ctx, PendingCommit{SSI: debtorSSI, Operation: "liquidate_btc", Txid: txid, Amount: uint64(btcBuilt.Amount)}); err != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, err)
		}
		btcTxid, serr2 := signAndBroadcast(ctx, o.Oracle, o.BTC, btcBuilt.Unsigned, debtorSDBPath, debtorPubKey, debtorPubKeyHash, signingParams{Params: params, KeyName: o.Context.KeyName})
		if serr2 != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, serr2)
		}

		// Step: Commit -- retire the debtor's collateral and loan.
		if err := ledger.RetireLoanAfterRedeem(ctx, o.Storage, debtorSSI); err != nil {
			return liquidateErr(ErrLiquidateBuildOrSettle, err)
		}
		if err := o.clearPendingCommit(ctx, debtorSSI, "liquidate_btc"); err != nil {
			o.log().Warn("liquidate: btc pending commit persisted past successful settle", "ssi", debtorSSI, "error", err)
		}

		if err := o.runSelfCheck(ctx, debtorSSI); err != nil {
			return err
		}

		result = &LiquidationResult{RelayTxid: relayTxid, BTCTxid: btcTxid, SeizedSats: collateral}
		return nil
	})

	return result, err
}

package orchestrator

import (
	"context"
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txbuilder"
)

// RedeemResult is the outcome of a successful redeem-and-unlock operation.
type RedeemResult struct {
	Txid   string
	Amount uint64
}

// RedeemBitcoin burns the user's SUSD transfer-inscription at the SDB
// (returning it to the service) and pays the outstanding BTC collateral
// back to the user, then retires the loan (spec.md §4.7, "Redeem").
func (o *Orchestrator) RedeemBitcoin(ctx context.Context, ssiID string, txid string, providerID uint32) (*RedeemResult, error) {
	var result *RedeemResult

	err := o.acquire(ssiID, func() error {
		loan := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, ssiID, ledger.NonceSDB)
		if loan == 0 {
			return redeemErr(ErrRedeemNoLoan, fmt.Errorf("no outstanding loan for ssi %q", ssiID))
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
		sdbAddr, sdbPubKey, perr := ssi.SDBAddress(ctx, o.Context, o.Oracle, ssiID)
		if perr != nil {
			return perr
		}
		sdbPubKeyHash := ssi.PubKeyHash(sdbPubKey)
		sdbPath := ssi.SDBDerivationPath(o.Context, ssiID)
		userAddr, _, uerr := ssi.WalletAddress(ctx, o.Context, o.Oracle, ssiID)
		if uerr != nil {
			return uerr
		}

		// Step: verify the inscription via the indexer bridge.
		info, ierr := o.Indexer.InscriptionInfo(ctx, o.Registry, providerID, txid)
		if ierr != nil {
			return redeemErr(ErrRedeemIndexerLookup, ierr)
		}
		if info.HolderAddress != sdbAddr.EncodeAddress() {
			return redeemErr(ErrRedeemHolderMismatch, fmt.Errorf("inscription holder %q does not match SDB address %q", info.HolderAddress, sdbAddr.EncodeAddress()))
		}

		balance, berr := o.Indexer.BRC20Info(ctx, o.Registry, providerID, sdbAddr.EncodeAddress())
		if berr != nil {
			return redeemErr(ErrRedeemIndexerLookup, berr)
		}
		if !ledger.WithinSlack(balance.AmountSats, loan, ledger.SlackSats) {
			return redeemErr(ErrRedeemOutsideSlack, fmt.Errorf("inscribed amount %d is outside the slack window of loan %d", balance.AmountSats, loan))
		}

		// Step: FetchUtxos.
		sdbScript, serr := scriptPubKeyFor(sdbPubKeyHash, params)
		if serr != nil {
			return redeemErr(ErrRedeemFetchUtxos, serr)
		}
		sdbUtxos, ferr := o.BTC.GetUtxos(sdbScript)
		if ferr != nil {
			return redeemErr(ErrRedeemFetchUtxos, fmt.Errorf("fetch utxos: %w", ferr))
		}
		selectedUtxo, found := findUtxo(sdbUtxos, txid, 0)
		if !found {
			return redeemErr(ErrRedeemUtxoNotFound, fmt.Errorf("inscription utxo %s:0 not found at SDB address", txid))
		}
		feeBearing, _ := selector.ClassifyWithThreshold(sdbUtxos, o.Context.DustThresholdSats)

		feePerByte, ferr := o.feePerByte()
		if ferr != nil {
			return redeemErr(ErrRedeemFetchUtxos, ferr)
		}

		collateral := ledger.BalanceOf(ctx, o.Storage, ledger.BTC, ssiID, ledger.NonceSDB)

		// Step: Build.
		built, berr2 := txbuilder.Redeem(
			ctx, o.Oracle, params, o.Context.KeyName, sdbPath, sdbPubKey, sdbPubKeyHash,
			serviceAddr.EncodeAddress(), selectedUtxo, sdbAddr.EncodeAddress(), feeBearing,
			userAddr.EncodeAddress(), int64(collateral), feePerByte,
		)
		if berr2 != nil {
			return redeemErr(ErrRedeemBuild, berr2)
		}

		// Step: persist pending commit before broadcast.
		if err := o.putPendingCommit(ctx, PendingCommit{SSI: ssiID, Operation: "redeem_btc", Txid: txid, Amount: uint64(built.Amount)}); err != nil {
			return redeemErr(ErrRedeemBroadcastOrSettle, err)
		}

		// Step: Sign + Broadcast.
		broadcastTxid, serr := signAndBroadcast(ctx, o.Oracle, o.BTC, built.Unsigned, sdbPath, sdbPubKey, sdbPubKeyHash, signingParams{Params: params, KeyName: o.Context.KeyName})
		if serr != nil {
			return redeemErr(ErrRedeemBroadcastOrSettle, serr)
		}

		// Step: Commit -- reconciliation zeros B[BTC,1] and retires the loan.
		if err := ledger.RetireLoanAfterRedeem(ctx, o.Storage, ssiID); err != nil {
			return redeemErr(ErrRedeemBroadcastOrSettle, err)
		}
		if err := o.clearPendingCommit(ctx, ssiID, "redeem_btc"); err != nil {
			o.log().Warn("redeem_btc: pending commit persisted past successful settle", "ssi", ssiID, "error", err)
		}

		if err := o.runSelfCheck(ctx, ssiID); err != nil {
			return err
		}

		result = &RedeemResult{Txid: broadcastTxid, Amount: uint64(built.Amount)}
		return nil
	})

	return result, err
}

// RedemptionGas runs the Redeem fee-fixed-point loop without broadcasting,
// reporting the additional sats the caller must deposit before a real
// redeem would succeed, or 0 when the loan is already coverable (spec.md
// §4.5 variant 5, §6 "redemption_gas(ssi)").
func (o *Orchestrator) RedemptionGas(ctx context.Context, ssiID string) (uint64, error) {
	params, perr := ssi.Params(o.Context.Network)
	if perr != nil {
		return 0, perr
	}
	serviceAddr, _, perr := ssi.ServiceAddress(ctx, o.Context, o.Oracle)
	if perr != nil {
		return 0, perr
	}
	sdbAddr, sdbPubKey, perr := ssi.SDBAddress(ctx, o.Context, o.Oracle, ssiID)
	if perr != nil {
		return 0, perr
	}
	sdbPubKeyHash := ssi.PubKeyHash(sdbPubKey)
	sdbPath := ssi.SDBDerivationPath(o.Context, ssiID)
	userAddr, _, uerr := ssi.WalletAddress(ctx, o.Context, o.Oracle, ssiID)
	if uerr != nil {
		return 0, uerr
	}

	loan := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, ssiID, ledger.NonceSDB)
	if loan == 0 {
		return 0, redeemErr(ErrRedeemNoLoan, fmt.Errorf("no outstanding loan for ssi %q", ssiID))
	}

	sdbScript, serr := scriptPubKeyFor(sdbPubKeyHash, params)
	if serr != nil {
		return 0, redeemErr(ErrRedeemFetchUtxos, serr)
	}
	sdbUtxos, ferr := o.BTC.GetUtxos(sdbScript)
	if ferr != nil {
		return 0, redeemErr(ErrRedeemFetchUtxos, fmt.Errorf("fetch utxos: %w", ferr))
	}
	feeBearing, inscriptions := selector.ClassifyWithThreshold(sdbUtxos, o.Context.DustThresholdSats)
	if len(inscriptions) == 0 {
		return 0, redeemErr(ErrRedeemUtxoNotFound, fmt.Errorf("no transfer-inscription UTXO held at SDB"))
	}

	feePerByte, ferr := o.feePerByte()
	if ferr != nil {
		return 0, redeemErr(ErrRedeemFetchUtxos, ferr)
	}

	collateral := ledger.BalanceOf(ctx, o.Storage, ledger.BTC, ssiID, ledger.NonceSDB)

	additional, err := txbuilder.GasQuote(
		ctx, o.Oracle, params, o.Context.KeyName, sdbPath, sdbPubKey, sdbPubKeyHash,
		serviceAddr.EncodeAddress(), inscriptions[0], sdbAddr.EncodeAddress(), feeBearing,
		userAddr.EncodeAddress(), int64(collateral), feePerByte,
	)
	if err != nil {
		return 0, redeemErr(ErrRedeemBuild, err)
	}
	return uint64(additional), nil
}

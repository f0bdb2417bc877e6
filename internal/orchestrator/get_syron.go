package orchestrator

import (
	"context"
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txbuilder"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// GetSyronResult is the outcome of a successful withdraw/mint-transfer
// operation.
type GetSyronResult struct {
	Txid      string
	Inscribed uint64
}

// GetSyron relays a BRC-20 transfer-inscription the caller created at the
// service address back out to their own SSI wallet address, crediting the
// inscribed amount from available to issued (spec.md §4.7, "Withdraw
// (mint transfer)"). expectedAmount is an optional caller-supplied sanity
// check (the `syron_withdrawal` RPC's extra `amount` argument versus the
// simpler `withdraw_susd` RPC, which omits it) -- when non-zero, the
// indexer-reported inscribed amount must fall within ledger.SlackSats of
// it or the call is rejected before anything is built or broadcast
// (spec.md §6 lists both `withdraw_susd(ssi, txid, provider, fee)` and
// `syron_withdrawal(ssi, txid, provider, amount, fee)` as distinct
// entries on the operation surface; see DESIGN.md for this reading).
func (o *Orchestrator) GetSyron(ctx context.Context, ssiID string, txid string, providerID uint32, expectedAmount uint64) (*GetSyronResult, error) {
	var result *GetSyronResult

	err := o.acquire(ssiID, func() error {
		// Step: Prep.
		params, perr := ssi.Params(o.Context.Network)
		if perr != nil {
			return perr
		}
		serviceAddr, servicePubKey, perr := ssi.ServiceAddress(ctx, o.Context, o.Oracle)
		if perr != nil {
			return perr
		}
		servicePubKeyHash := ssi.PubKeyHash(servicePubKey)
		servicePath := ssi.ServiceDerivationPath(o.Context)
		userAddr, _, uerr := ssi.WalletAddress(ctx, o.Context, o.Oracle, ssiID)
		if uerr != nil {
			return uerr
		}

		// Step: reconcile confirmed SDB deposits before trusting
		// SUSD[2] below (spec.md §4.7, "Deposit confirmed"; mirrors
		// original_source/lib.rs's update_ssi_balance-then-mint order
		// inside withdraw_susd).
		if _, rerr := o.ReconcileDeposits(ctx, ssiID); rerr != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, rerr)
		}

		// Step: verify the inscription via the indexer bridge.
		info, ierr := o.Indexer.InscriptionInfo(ctx, o.Registry, providerID, txid)
		if ierr != nil {
			return withdrawErr(ErrWithdrawIndexerLookup, ierr)
		}
		if info.HolderAddress != serviceAddr.EncodeAddress() {
			return withdrawErr(ErrWithdrawHolderMismatch, fmt.Errorf("inscription holder %q does not match service address %q", info.HolderAddress, serviceAddr.EncodeAddress()))
		}

		balance, berr := o.Indexer.BRC20Info(ctx, o.Registry, providerID, serviceAddr.EncodeAddress())
		if berr != nil {
			return withdrawErr(ErrWithdrawIndexerLookup, berr)
		}
		if expectedAmount != 0 && !ledger.WithinSlack(balance.AmountSats, expectedAmount, ledger.SlackSats) {
			return withdrawErr(ErrWithdrawAmountExceeds, fmt.Errorf("indexer-reported amount %d is outside slack of caller-supplied amount %d", balance.AmountSats, expectedAmount))
		}

		available := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, ssiID, ledger.NonceAvailable)
		if balance.AmountSats > available+ledger.SlackSats {
			return withdrawErr(ErrWithdrawAmountExceeds, fmt.Errorf("inscribed amount %d exceeds available balance %d plus slack", balance.AmountSats, available))
		}

		// Step: FetchUtxos.
		serviceScript, serr := scriptPubKeyFor(servicePubKeyHash, params)
		if serr != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, serr)
		}
		serviceUtxos, ferr := o.BTC.GetUtxos(serviceScript)
		if ferr != nil {
			return withdrawErr(ErrWithdrawUtxoNotFound, fmt.Errorf("fetch utxos: %w", ferr))
		}
		selectedUtxo, found := findUtxo(serviceUtxos, txid, 0)
		if !found {
			return withdrawErr(ErrWithdrawUtxoNotFound, fmt.Errorf("inscription utxo %s:0 not found at service address", txid))
		}
		feeBearing, ferr := o.fetchFeeBearing(serviceScript)
		if ferr != nil {
			return withdrawErr(ErrWithdrawUtxoNotFound, ferr)
		}

		feePerByte, ferr := o.feePerByte()
		if ferr != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, ferr)
		}

		// Step: Build.
		built, berr2 := txbuilder.Withdraw(
			ctx, o.Oracle, params, o.Context.KeyName, servicePath, servicePubKey, servicePubKeyHash,
			serviceAddr.EncodeAddress(), selectedUtxo, feeBearing, userAddr.EncodeAddress(), feePerByte,
		)
		if berr2 != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, berr2)
		}

		// Step: persist pending commit before broadcast.
		if err := o.putPendingCommit(ctx, PendingCommit{SSI: ssiID, Operation: "get_syron", Txid: txid, Amount: balance.AmountSats}); err != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, err)
		}

		// Step: Sign + Broadcast.
		broadcastTxid, serr := signAndBroadcast(ctx, o.Oracle, o.BTC, built.Unsigned, servicePath, servicePubKey, servicePubKeyHash, signingParams{Params: params, KeyName: o.Context.KeyName})
		if serr != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, serr)
		}

		// Step: Commit.
		if err := ledger.WithdrawMintTransfer(ctx, o.Storage, ssiID, balance.AmountSats); err != nil {
			return withdrawErr(ErrWithdrawBuildOrSettle, err)
		}
		if err := o.clearPendingCommit(ctx, ssiID, "get_syron"); err != nil {
			o.log().Warn("get_syron: pending commit persisted past successful settle", "ssi", ssiID, "error", err)
		}

		if err := o.runSelfCheck(ctx, ssiID); err != nil {
			return err
		}

		result = &GetSyronResult{Txid: broadcastTxid, Inscribed: balance.AmountSats}
		return nil
	})

	return result, err
}

func findUtxo(utxos []txmodel.Utxo, hexTxid string, vout uint32) (txmodel.Utxo, bool) {
	txid, err := txmodel.ParseTxid(hexTxid)
	if err != nil {
		return txmodel.Utxo{}, false
	}
	for _, u := range utxos {
		if u.Outpoint.Txid == txid && u.Outpoint.Vout == vout {
			return u, true
		}
	}
	return txmodel.Utxo{}, false
}

package orchestrator

import (
	"context"
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txbuilder"
)

// SendResult is the outcome of a successful plain BTC send.
type SendResult struct {
	Txid string
	Fee  int64
}

// SendBTC moves bitcoin from the service's own P2WPKH address to an
// arbitrary destination, the direct analogue of original_source/lib.rs's
// top-level `send` RPC -- the one TxBuilder variant (spec.md §4.5 "Send")
// with no dedicated entry on the §6 operation surface, since every
// user-facing transfer in this system instead moves through a named
// SSI-scoped operation. Exposed for operator-level treasury movement
// (sweeping collected fees, funding a new deployment's UTXO set, and
// similar maintenance the original's single-wallet canister handled with
// the same RPC), gated by authset.Manage at the path layer.
func (o *Orchestrator) SendBTC(ctx context.Context, destination string, amountSats int64) (*SendResult, error) {
	var result *SendResult

	err := o.acquire("service", func() error {
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

		serviceScript, serr := scriptPubKeyFor(servicePubKeyHash, params)
		if serr != nil {
			return fmt.Errorf("orchestrator: send: %w", serr)
		}
		feeBearing, ferr := o.fetchFeeBearing(serviceScript)
		if ferr != nil {
			return fmt.Errorf("orchestrator: send: %w", ferr)
		}

		feePerByte, ferr := o.feePerByte()
		if ferr != nil {
			return fmt.Errorf("orchestrator: send: %w", ferr)
		}

		built, berr := txbuilder.Send(
			ctx, o.Oracle, params, o.Context.KeyName, servicePath, servicePubKey, servicePubKeyHash,
			serviceAddr.EncodeAddress(), feeBearing, destination, amountSats, feePerByte,
		)
		if berr != nil {
			return fmt.Errorf("orchestrator: send: %w", berr)
		}

		if err := o.putPendingCommit(ctx, PendingCommit{SSI: "service", Operation: "send_btc", Txid: destination, Amount: uint64(amountSats)}); err != nil {
			return fmt.Errorf("orchestrator: send: %w", err)
		}
		txid, serr2 := signAndBroadcast(ctx, o.Oracle, o.BTC, built.Unsigned, servicePath, servicePubKey, servicePubKeyHash, signingParams{Params: params, KeyName: o.Context.KeyName})
		if serr2 != nil {
			return fmt.Errorf("orchestrator: send: %w", serr2)
		}
		if err := o.clearPendingCommit(ctx, "service", "send_btc"); err != nil {
			o.log().Warn("send_btc: pending commit persisted past successful settle", "error", err)
		}

		result = &SendResult{Txid: txid, Fee: built.Fee}
		return nil
	})

	return result, err
}

// Package orchestrator drives the explicit step machine
// Prep -> FetchUtxos -> Build -> Sign -> Broadcast -> Commit across the
// four operations {GetSyron, RedeemBitcoin, Liquidation, Payment},
// grounded on backend.go's lock/double-check pattern in the teacher repo
// and spec.md §9's step-machine design note.
package orchestrator

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/btcrpc"
	"github.com/txalkan/basic-bitcoin-syron/internal/indexer"
	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
	"github.com/txalkan/basic-bitcoin-syron/internal/leases"
	"github.com/txalkan/basic-bitcoin-syron/internal/selector"
	"github.com/txalkan/basic-bitcoin-syron/internal/signer"
	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
	"github.com/txalkan/basic-bitcoin-syron/internal/txbuilder"
	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// Step names the explicit coroutine step machine spec.md §9 requires in
// place of the original's ambient async/await control flow.
type Step string

const (
	StepPrep       Step = "prep"
	StepFetchUtxos Step = "fetch_utxos"
	StepBuild      Step = "build"
	StepSign       Step = "sign"
	StepBroadcast  Step = "broadcast"
	StepCommit     Step = "commit"
)

// InvariantViolation traps a failed post-commit SelfCheck (spec.md §4.8).
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("orchestrator: invariant violation: %s", e.Detail)
}

// Orchestrator wires every component together behind the four public
// operations. It holds no per-call state; everything it needs is either
// threaded as an argument or read from storage.
type Orchestrator struct {
	Context  ssi.Context
	Oracle   signer.Oracle
	BTC      *btcrpc.Client
	Indexer  *indexer.Bridge
	Registry *indexer.Registry
	Storage  logical.Storage
	Leases   *leases.Manager
	Gov      ledger.GovernanceParams
	Logger   hclog.Logger

	// SelfCheck re-reads ledger balances after every commit and traps an
	// InvariantViolation on failure; feature-gated per spec.md §4.8
	// ("optional, feature-gated").
	SelfCheck bool
}

func (o *Orchestrator) log() hclog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return hclog.NewNullLogger()
}

// PendingCommit is persisted BEFORE broadcast so a background reconciler
// can settle the ledger update if the process dies between broadcast
// success and commit (spec.md §9, "Double-spend risk in ledger commit").
type PendingCommit struct {
	SSI       string `json:"ssi"`
	Operation string `json:"operation"`
	Txid      string `json:"txid"`
	Amount    uint64 `json:"amount"`
}

func pendingCommitKey(ssiID, operation string) string {
	return fmt.Sprintf("pending-commit/%s/%s", operation, ssiID)
}

func (o *Orchestrator) putPendingCommit(ctx context.Context, pc PendingCommit) error {
	entry, err := logical.StorageEntryJSON(pendingCommitKey(pc.SSI, pc.Operation), pc)
	if err != nil {
		return fmt.Errorf("orchestrator: encode pending commit: %w", err)
	}
	return o.Storage.Put(ctx, entry)
}

func (o *Orchestrator) clearPendingCommit(ctx context.Context, ssiID, operation string) error {
	return o.Storage.Delete(ctx, pendingCommitKey(ssiID, operation))
}

// GetPendingCommit exposes the persisted marker for a background
// reconciler to inspect, or nil if no commit is outstanding.
func (o *Orchestrator) GetPendingCommit(ctx context.Context, ssiID, operation string) (*PendingCommit, error) {
	entry, err := o.Storage.Get(ctx, pendingCommitKey(ssiID, operation))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read pending commit: %w", err)
	}
	if entry == nil {
		return nil, nil
	}
	var pc PendingCommit
	if err := entry.DecodeJSON(&pc); err != nil {
		return nil, fmt.Errorf("orchestrator: decode pending commit: %w", err)
	}
	return &pc, nil
}

// acquire runs fn while holding ssiID's lease, releasing it on every exit
// path including panics (spec.md §5: "a simple busy bit released on all
// exit paths").
func (o *Orchestrator) acquire(ssiID string, fn func() error) error {
	release, err := o.Leases.Acquire(ssiID)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// fetchFeeBearing fetches every UTXO at pkScript and returns the subset
// usable to fund a fee: dust-threshold inscription carriers are classified
// out, and any UTXO on the deployment's skip-list (spec.md §9, "minter
// balance inscription" -- see ssi.Context.SkipTxids) is dropped even if it
// is not otherwise dust, mirroring
// original_source/bitcoin_wallet.rs's minter-UTXO-removal loop.
func (o *Orchestrator) fetchFeeBearing(pkScript []byte) ([]txmodel.Utxo, error) {
	all, err := o.BTC.GetUtxos(pkScript)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: fetch utxos: %w", err)
	}
	feeBearing, _ := selector.ClassifyWithThreshold(all, o.Context.DustThresholdSats)

	filtered := feeBearing[:0]
	for _, u := range feeBearing {
		if o.Context.ShouldSkip(hex.EncodeToString(u.Outpoint.Txid[:])) {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered, nil
}

func (o *Orchestrator) feePerByte() (uint64, error) {
	observed, err := o.BTC.GetCurrentFeePercentileMsatPerByte()
	if err != nil {
		return 0, fmt.Errorf("orchestrator: fee percentile: %w", err)
	}
	return txbuilder.FeePerByte(o.Context.FeeFloorMsatPerByte, observed, observed > 0), nil
}

func (o *Orchestrator) runSelfCheck(ctx context.Context, ssiID string) error {
	if !o.SelfCheck {
		return nil
	}
	susd2 := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, ssiID, ledger.NonceAvailable)
	susd3 := ledger.BalanceOf(ctx, o.Storage, ledger.SUSD, ssiID, ledger.NonceIssued)
	btc1 := ledger.BalanceOf(ctx, o.Storage, ledger.BTC, ssiID, ledger.NonceSDB)
	// Wraparound guard: none of these balances may wrap negative under
	// uint64 arithmetic -- a wraparound would manifest as an implausibly
	// large value. Balances are not compared against their pre-commit
	// values, so monotonicity itself is not checked here.
	const implausible = 1 << 60
	if susd2 > implausible || susd3 > implausible || btc1 > implausible {
		return &InvariantViolation{Detail: fmt.Sprintf("implausible balance for ssi %q: susd2=%d susd3=%d btc1=%d", ssiID, susd2, susd3, btc1)}
	}
	return nil
}

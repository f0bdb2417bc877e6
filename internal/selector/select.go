// Package selector classifies candidate UTXOs and picks a spendable subset
// for a target amount, grounded on wallet/transaction.go's SelectUTXOs in
// the teacher repo (spec.md §4.4).
package selector

import (
	"fmt"

	"github.com/txalkan/basic-bitcoin-syron/internal/txmodel"
)

// DustThresholdSats is the protocol's inscription-carrier proxy: any UTXO
// below this value is presumed to carry a BRC-20 inscription rather than
// spendable fee balance (spec.md §4.4).
const DustThresholdSats int64 = 600

// Classify splits a UTXO set into fee-bearing (>= DustThresholdSats) and
// inscription-carrying (< DustThresholdSats) groups using the protocol's
// default dust proxy. The teacher's SelectUTXOs never separates these --
// it sorts everything by value and spends largest-first -- but this
// protocol's inscription UTXOs are never eligible fee funding, so
// classification must happen before selection.
func Classify(utxos []txmodel.Utxo) (feeBearing, inscriptionCarrying []txmodel.Utxo) {
	return ClassifyWithThreshold(utxos, DustThresholdSats)
}

// ClassifyWithThreshold is Classify with a deployment-configured threshold
// in place of the protocol default, the knob spec.md §9's Context wiring
// exposes as ssi.Context.DustThresholdSats for networks (e.g. a low-value
// regtest/signet deployment) that want a different dust proxy.
func ClassifyWithThreshold(utxos []txmodel.Utxo, threshold int64) (feeBearing, inscriptionCarrying []txmodel.Utxo) {
	for _, u := range utxos {
		if u.ValueSats < threshold {
			inscriptionCarrying = append(inscriptionCarrying, u)
		} else {
			feeBearing = append(feeBearing, u)
		}
	}
	return feeBearing, inscriptionCarrying
}

// InsufficientFundsError carries the additional amount (in sats) the
// caller must deposit before the target can be met, so the Orchestrator
// can render a user-actionable message (spec.md §4.5).
type InsufficientFundsError struct {
	Target             int64
	Available          int64
	AdditionalRequired int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("selector: insufficient funds: have %d, need %d, deposit at least %d more sats",
		e.Available, e.Target, e.AdditionalRequired)
}

// SelectReverseOldestFirst picks a subset of candidates summing to at
// least target, walking candidates in reverse index order -- the repo's
// "oldest first" heuristic, which treats the server-returned list as
// newest-last (spec.md §4.4). It stops at the first prefix (in that
// iteration order) whose sum reaches target; it does not try to minimize
// the number of inputs or leftover change.
func SelectReverseOldestFirst(candidates []txmodel.Utxo, target int64) ([]txmodel.Utxo, error) {
	if target <= 0 {
		return nil, nil
	}

	var selected []txmodel.Utxo
	var total int64

	for i := len(candidates) - 1; i >= 0; i-- {
		u := candidates[i]
		selected = append(selected, u)
		total += u.ValueSats
		if total >= target {
			return selected, nil
		}
	}

	return nil, &InsufficientFundsError{
		Target:             target,
		Available:          total,
		AdditionalRequired: target - total,
	}
}

package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
)

// Payment moves SUSD between two SSIs' available balances entirely inside
// the ledger -- no Bitcoin transaction is built, signed, or broadcast,
// since both sides already live in this service's custody (spec.md §4.7,
// "Payment"). The sender's SSI is the one whose lease is held, matching
// every other operation's per-SSI mutual-exclusion guard.
func (o *Orchestrator) Payment(ctx context.Context, senderSSI, recipientSSI string, amount uint64) error {
	if amount == 0 || strings.EqualFold(senderSSI, recipientSSI) {
		return paymentErr(ErrPaymentInvalidArgs, fmt.Errorf("amount %d, sender %q, recipient %q", amount, senderSSI, recipientSSI))
	}
	return o.acquire(senderSSI, func() error {
		if err := ledger.Payment(ctx, o.Storage, senderSSI, recipientSSI, amount); err != nil {
			return paymentErr(ErrPaymentInsufficientBalance, err)
		}
		return nil
	})
}

package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"
)

// pathPayment implements `send_syron(ssi, recipient_ssi, amount)`
// (spec.md §6), wiring to orchestrator.Payment -- a pure ledger move with
// no Bitcoin transaction, since both sides are already in custody.
func pathPayment(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "payment",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "payment",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi": {
					Type:        framework.TypeString,
					Description: "Sending self-sovereign identifier.",
					Required:    true,
				},
				"recipient_ssi": {
					Type:        framework.TypeString,
					Description: "Receiving self-sovereign identifier.",
					Required:    true,
				},
				"amount": {
					Type:        framework.TypeInt64,
					Description: "SUSD amount to move from the sender's available balance to the recipient's.",
					Required:    true,
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathSendSyron,
				},
			},
			HelpSynopsis: "Move SUSD between two SSIs' available balances entirely within the ledger.",
		},
	}
}

func (b *syronBackend) pathSendSyron(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	amount := data.Get("amount").(int64)
	if amount <= 0 {
		return logical.ErrorResponse("amount must be positive"), nil
	}

	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	if err := o.Payment(ctx, data.Get("ssi").(string), data.Get("recipient_ssi").(string), uint64(amount)); err != nil {
		return operationErrorResponse(err), nil
	}
	return nil, nil
}

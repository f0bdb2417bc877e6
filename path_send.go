package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/authset"
)

// pathSend exposes the TxBuilder "Send" variant (spec.md §4.5) as an
// operator-gated treasury operation over the service's own address, since
// it has no dedicated entry on the §6 operation surface.
func pathSend(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "send",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "send",
			},
			Fields: map[string]*framework.FieldSchema{
				"principal": {
					Type:        framework.TypeString,
					Description: "Operator identity performing this send, checked against authset.Manage.",
					Required:    true,
				},
				"destination_address": {
					Type:        framework.TypeString,
					Description: "Destination Bitcoin address.",
					Required:    true,
				},
				"amount": {
					Type:        framework.TypeInt64,
					Description: "Amount in satoshis to send from the service's own address.",
					Required:    true,
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathSendBTC,
				},
			},
			HelpSynopsis: "Send bitcoin from the service's own address to an arbitrary destination.",
		},
	}
}

func (b *syronBackend) pathSendBTC(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	if err := requirePermission(ctx, req, data, authset.Manage); err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	amount := data.Get("amount").(int64)
	if amount <= 0 {
		return logical.ErrorResponse("amount must be positive"), nil
	}

	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	result, err := o.SendBTC(ctx, data.Get("destination_address").(string), amount)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	return &logical.Response{Data: map[string]interface{}{
		"txid": result.Txid,
		"fee":  result.Fee,
	}}, nil
}

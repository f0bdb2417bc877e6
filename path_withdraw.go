package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"
)

// pathWithdraw implements `withdraw_susd(ssi, txid, provider, fee)` and
// `syron_withdrawal(ssi, txid, provider, amount, fee)` (spec.md §6): both
// relay a mint-transfer inscription from the service address back to the
// caller's wallet via orchestrator.GetSyron, differing only in whether the
// caller supplies an expected amount to sanity-check against the indexer
// (see internal/orchestrator/get_syron.go).
func pathWithdraw(b *syronBackend) []*framework.Path {
	fields := map[string]*framework.FieldSchema{
		"ssi": {
			Type:        framework.TypeString,
			Description: "Self-sovereign identifier withdrawing.",
			Required:    true,
		},
		"txid": {
			Type:        framework.TypeString,
			Description: "Txid of the mint-transfer inscription at the service address.",
			Required:    true,
		},
		"provider": {
			Type:        framework.TypeInt,
			Description: "Registered indexer provider id to verify the inscription against.",
			Required:    true,
		},
		"fee": {
			Type:        framework.TypeInt64,
			Description: "Caller-acknowledged fee estimate; informational, the fee-fixed-point loop determines the real fee.",
		},
	}

	withdrawFields := map[string]*framework.FieldSchema{}
	for k, v := range fields {
		withdrawFields[k] = v
	}

	withdrawalFields := map[string]*framework.FieldSchema{}
	for k, v := range fields {
		withdrawalFields[k] = v
	}
	withdrawalFields["amount"] = &framework.FieldSchema{
		Type:        framework.TypeInt64,
		Description: "Caller-supplied expected inscribed amount, verified within slack of the indexer-reported amount.",
		Required:    true,
	}

	return []*framework.Path{
		{
			Pattern: "withdraw/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "withdraw-susd",
			},
			Fields: withdrawFields,
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathWithdrawSUSD,
				},
			},
			HelpSynopsis: "Relay a mint-transfer inscription back to the caller's wallet.",
		},
		{
			Pattern: "withdrawal/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "syron-withdrawal",
			},
			Fields: withdrawalFields,
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathSyronWithdrawal,
				},
			},
			HelpSynopsis: "Relay a mint-transfer inscription back to the caller's wallet, verifying a caller-supplied amount.",
		},
	}
}

func (b *syronBackend) pathWithdrawSUSD(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	return b.withdraw(ctx, req, data, 0)
}

func (b *syronBackend) pathSyronWithdrawal(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	return b.withdraw(ctx, req, data, uint64(data.Get("amount").(int64)))
}

func (b *syronBackend) withdraw(ctx context.Context, req *logical.Request, data *framework.FieldData, expectedAmount uint64) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	result, err := o.GetSyron(ctx, data.Get("ssi").(string), data.Get("txid").(string), uint32(data.Get("provider").(int)), expectedAmount)
	if err != nil {
		return operationErrorResponse(err), nil
	}

	return &logical.Response{Data: map[string]interface{}{
		"txid":      result.Txid,
		"inscribed": result.Inscribed,
	}}, nil
}

package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"
)

// pathRedeem implements `redeem_btc(ssi, txid)` and `redemption_gas(ssi)`
// (spec.md §6), wiring to orchestrator.RedeemBitcoin/RedemptionGas.
func pathRedeem(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "redeem/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "redeem-btc",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi": {
					Type:        framework.TypeString,
					Description: "Self-sovereign identifier redeeming.",
					Required:    true,
				},
				"txid": {
					Type:        framework.TypeString,
					Description: "Txid of the SUSD transfer-inscription burned at the SDB.",
					Required:    true,
				},
				"provider": {
					Type:        framework.TypeInt,
					Description: "Registered indexer provider id to verify the inscription against.",
					Required:    true,
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathRedeemBTC,
				},
			},
			HelpSynopsis: "Burn the SDB transfer-inscription and return BTC collateral.",
		},
		{
			Pattern: "redeem/" + framework.GenericNameRegex("ssi") + "/gas",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "redemption-gas",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi": {
					Type:        framework.TypeString,
					Description: "Self-sovereign identifier to quote redemption gas for.",
					Required:    true,
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathRedemptionGas,
				},
			},
			HelpSynopsis: "Quote the additional sats the caller must deposit before a redeem would succeed.",
		},
	}
}

func (b *syronBackend) pathRedeemBTC(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	result, err := o.RedeemBitcoin(ctx, data.Get("ssi").(string), data.Get("txid").(string), uint32(data.Get("provider").(int)))
	if err != nil {
		return operationErrorResponse(err), nil
	}

	return &logical.Response{Data: map[string]interface{}{
		"txid":   result.Txid,
		"amount": result.Amount,
	}}, nil
}

func (b *syronBackend) pathRedemptionGas(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	additional, err := o.RedemptionGas(ctx, data.Get("ssi").(string))
	if err != nil {
		return operationErrorResponse(err), nil
	}

	return &logical.Response{Data: map[string]interface{}{"additional_deposit_required": additional}}, nil
}

package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"
)

// pathLiquidate implements `liquidate(debtor_ssi, liquidator_ssi, txid, fee)`
// (spec.md §6), wiring to orchestrator.Liquidation.
func pathLiquidate(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "liquidate",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "liquidate",
			},
			Fields: map[string]*framework.FieldSchema{
				"debtor_ssi": {
					Type:        framework.TypeString,
					Description: "Self-sovereign identifier of the undercollateralized position.",
					Required:    true,
				},
				"liquidator_ssi": {
					Type:        framework.TypeString,
					Description: "Self-sovereign identifier of the liquidator covering the debt.",
					Required:    true,
				},
				"txid": {
					Type:        framework.TypeString,
					Description: "Txid of the liquidator's covering SUSD inscription at their own SDB.",
					Required:    true,
				},
				"provider": {
					Type:        framework.TypeInt,
					Description: "Registered indexer provider id to verify the covering inscription against.",
					Required:    true,
				},
				"fee": {
					Type:        framework.TypeInt64,
					Description: "Caller-acknowledged fee estimate; informational, the fee-fixed-point loop determines the real fee.",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathLiquidate,
				},
			},
			HelpSynopsis: "Seize an undercollateralized position's BTC collateral for a covering liquidator.",
		},
	}
}

func (b *syronBackend) pathLiquidate(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	result, err := o.Liquidation(
		ctx,
		data.Get("debtor_ssi").(string),
		data.Get("liquidator_ssi").(string),
		data.Get("txid").(string),
		uint32(data.Get("provider").(int)),
	)
	if err != nil {
		return operationErrorResponse(err), nil
	}

	return &logical.Response{Data: map[string]interface{}{
		"relay_txid":  result.RelayTxid,
		"btc_txid":    result.BTCTxid,
		"seized_sats": result.SeizedSats,
	}}, nil
}

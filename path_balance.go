package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/ledger"
)

// pathBalance implements `susd_balance_of(ssi, nonce)`,
// `sbtc_balance_of(ssi, nonce)`, and `get_account(ssi, dummy)` (spec.md §6):
// read-only ledger queries with no Bitcoin or indexer interaction.
func pathBalance(b *syronBackend) []*framework.Path {
	nonceField := &framework.FieldSchema{
		Type:        framework.TypeInt,
		Description: "Subaccount nonce: 0 wallet, 1 SDB, 2 available, 3 issued.",
		Default:     int(ledger.NonceSDB),
	}

	return []*framework.Path{
		{
			Pattern: "balance/susd/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "susd-balance",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi":   {Type: framework.TypeString, Required: true},
				"nonce": nonceField,
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathBalanceSUSD,
				},
			},
			HelpSynopsis: "SUSD subaccount balance for an SSI.",
		},
		{
			Pattern: "balance/sbtc/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "sbtc-balance",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi":   {Type: framework.TypeString, Required: true},
				"nonce": nonceField,
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathBalanceBTC,
				},
			},
			HelpSynopsis: "BTC subaccount balance for an SSI.",
		},
		{
			Pattern: "account/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "account",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi": {Type: framework.TypeString, Required: true},
				"dummy": {
					Type:        framework.TypeBool,
					Description: "Use the dummy synthetic collateral-ratio formula instead of the oracle-priced one.",
					Default:     false,
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathAccount,
				},
			},
			HelpSynopsis: "Full account view: all four subaccount balances and the collateral ratio.",
		},
	}
}

func (b *syronBackend) pathBalanceSUSD(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	bal := ledger.BalanceOf(ctx, req.Storage, ledger.SUSD, data.Get("ssi").(string), uint64(data.Get("nonce").(int)))
	return &logical.Response{Data: map[string]interface{}{"balance": bal}}, nil
}

func (b *syronBackend) pathBalanceBTC(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	bal := ledger.BalanceOf(ctx, req.Storage, ledger.BTC, data.Get("ssi").(string), uint64(data.Get("nonce").(int)))
	return &logical.Response{Data: map[string]interface{}{"balance": bal}}, nil
}

func (b *syronBackend) pathAccount(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	ssiID := data.Get("ssi").(string)
	dummy := data.Get("dummy").(bool)

	gov, err := b.governanceParams(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	cr, err := ledger.CollateralRatioBps(ctx, req.Storage, ssiID, dummy, gov)
	if err != nil {
		return nil, err
	}

	return &logical.Response{Data: map[string]interface{}{
		"ssi":                  ssiID,
		"btc_wallet":           ledger.BalanceOf(ctx, req.Storage, ledger.BTC, ssiID, ledger.NonceWallet),
		"btc_sdb":              ledger.BalanceOf(ctx, req.Storage, ledger.BTC, ssiID, ledger.NonceSDB),
		"susd_sdb":             ledger.BalanceOf(ctx, req.Storage, ledger.SUSD, ssiID, ledger.NonceSDB),
		"susd_available":       ledger.BalanceOf(ctx, req.Storage, ledger.SUSD, ssiID, ledger.NonceAvailable),
		"susd_issued":          ledger.BalanceOf(ctx, req.Storage, ledger.SUSD, ssiID, ledger.NonceIssued),
		"collateral_ratio_bps": cr,
	}}, nil
}

// governanceParams reads LTV/oracle-price straight from config, avoiding a
// full orchestrator build (and the indexer node dial it requires) for a
// read-only collateral-ratio query.
func (b *syronBackend) governanceParams(ctx context.Context, s logical.Storage) (ledger.GovernanceParams, error) {
	cfg, err := getConfig(ctx, s)
	if err != nil {
		return ledger.GovernanceParams{}, err
	}
	if cfg == nil {
		return ledger.GovernanceParams{}, nil
	}
	return ledger.GovernanceParams{LTV: cfg.LTV, OraclePriceRateE9: cfg.OraclePriceRateE9}, nil
}

package syron

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/ssi"
)

// pathAddress implements `get_p2wpkh_address` and `get_box_address(ssi, op)`
// (spec.md §6): deterministic, side-effect-free address derivation with no
// ledger or indexer interaction.
func pathAddress(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "address/p2wpkh",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "p2wpkh-address",
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathAddressP2WPKH,
				},
			},
			HelpSynopsis: "Return the service's own P2WPKH address.",
		},
		{
			Pattern: "address/box/" + framework.GenericNameRegex("ssi"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "box-address",
			},
			Fields: map[string]*framework.FieldSchema{
				"ssi": {
					Type:        framework.TypeString,
					Description: "Self-sovereign identifier to derive a box address for.",
					Required:    true,
				},
				"op": {
					Type:        framework.TypeString,
					Description: "Which box to derive: wallet, sdb, or service.",
					Default:     "wallet",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathAddressBox,
				},
			},
			HelpSynopsis: "Return an SSI's wallet, SDB, or service box address.",
		},
	}
}

func (b *syronBackend) pathAddressP2WPKH(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}
	addr, _, err := ssi.ServiceAddress(ctx, o.Context, o.Oracle)
	if err != nil {
		return nil, err
	}
	return &logical.Response{Data: map[string]interface{}{"address": addr.EncodeAddress()}}, nil
}

func (b *syronBackend) pathAddressBox(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	o, err := b.getOrchestrator(ctx, req.Storage)
	if err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	ssiID := data.Get("ssi").(string)
	op := data.Get("op").(string)

	var addr fmt.Stringer
	switch op {
	case "wallet":
		a, _, werr := ssi.WalletAddress(ctx, o.Context, o.Oracle, ssiID)
		if werr != nil {
			return nil, werr
		}
		addr = a
	case "sdb":
		a, _, serr := ssi.SDBAddress(ctx, o.Context, o.Oracle, ssiID)
		if serr != nil {
			return nil, serr
		}
		addr = a
	case "service":
		a, _, serr := ssi.ServiceAddress(ctx, o.Context, o.Oracle)
		if serr != nil {
			return nil, serr
		}
		addr = a
	default:
		return logical.ErrorResponse(fmt.Sprintf("unknown op %q: must be wallet, sdb, or service", op)), nil
	}

	return &logical.Response{Data: map[string]interface{}{"address": addr.String()}}, nil
}

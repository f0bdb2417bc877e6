package syron

import (
	"context"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/authset"
)

// pathAuth registers the CRUD surface over the operator permission set,
// gated by authset.Manage, replacing the original canister's Auth enum
// checks performed inline in lib.rs (spec.md §6, "Persisted state:
// ... auth").
func pathAuth(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "auth/" + framework.GenericNameRegex("principal"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "auth",
			},
			Fields: map[string]*framework.FieldSchema{
				"principal": {
					Type:        framework.TypeString,
					Description: "Operator identity to grant or revoke permissions for.",
					Required:    true,
				},
				"manager": {
					Type:        framework.TypeString,
					Description: "Identity of the caller performing this change, must already hold authset.Manage.",
					Required:    true,
				},
				"permissions": {
					Type:        framework.TypeCommaStringSlice,
					Description: "Permissions to grant: manage, register_provider.",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathAuthRead,
				},
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathAuthWrite,
				},
				logical.DeleteOperation: &framework.PathOperation{
					Callback: b.pathAuthRevoke,
				},
			},
			HelpSynopsis: "Read, grant, or revoke a principal's operator permissions.",
		},
	}
}

func (b *syronBackend) pathAuthRead(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	perms, err := authset.Get(ctx, req.Storage, data.Get("principal").(string))
	if err != nil {
		return nil, err
	}
	return &logical.Response{Data: map[string]interface{}{"permissions": perms}}, nil
}

// pathAuthWrite requires the caller to already hold authset.Manage, except
// for the very first grant: when no principal manages the deployment yet,
// cmd/syronctl's bootstrap subcommand seeds one through this same path.
func (b *syronBackend) pathAuthWrite(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	manager := data.Get("manager").(string)
	ok, err := authset.Has(ctx, req.Storage, manager, authset.Manage)
	if err != nil {
		return nil, err
	}
	if !ok {
		anyManager, merr := authset.HasAnyManager(ctx, req.Storage)
		if merr != nil {
			return nil, merr
		}
		if anyManager {
			return logical.ErrorResponse("manager lacks the manage permission"), nil
		}
	}

	raw := data.Get("permissions").([]string)
	perms := make([]authset.Permission, 0, len(raw))
	for _, p := range raw {
		perms = append(perms, authset.Permission(p))
	}
	if err := authset.Set(ctx, req.Storage, data.Get("principal").(string), perms); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *syronBackend) pathAuthRevoke(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	manager := data.Get("manager").(string)
	ok, err := authset.Has(ctx, req.Storage, manager, authset.Manage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return logical.ErrorResponse("manager lacks the manage permission"), nil
	}
	return nil, authset.Revoke(ctx, req.Storage, data.Get("principal").(string))
}

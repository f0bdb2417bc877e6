package syron

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/sdk/framework"
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/authset"
	"github.com/txalkan/basic-bitcoin-syron/internal/provider"
)

// pathProviders registers the CRUD surface over the BRC-20 indexer
// provider registry, gated by authset.RegisterProvider, replacing the
// original canister's register_provider/get_providers dispatch
// (spec.md §6, "Persisted state: ... providers").
func pathProviders(b *syronBackend) []*framework.Path {
	return []*framework.Path{
		{
			Pattern: "providers/?$",
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
				OperationSuffix: "providers",
			},
			Fields: map[string]*framework.FieldSchema{
				"principal": {
					Type:        framework.TypeString,
					Description: "Operator identity performing this registration, checked against authset.RegisterProvider.",
					Required:    true,
				},
				"base_url": {
					Type:        framework.TypeString,
					Description: "Indexer provider base URL.",
					Required:    true,
				},
				"auth_header": {
					Type:        framework.TypeString,
					Description: "Optional auth header name, e.g. Authorization or x-api-key.",
				},
				"auth_value": {
					Type:        framework.TypeString,
					Description: "Optional auth header value.",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ListOperation: &framework.PathOperation{
					Callback: b.pathProvidersList,
				},
				logical.CreateOperation: &framework.PathOperation{
					Callback: b.pathProvidersRegister,
				},
			},
			HelpSynopsis: "List or register BRC-20 indexer providers.",
		},
		{
			Pattern: "providers/" + framework.GenericNameRegex("id"),
			DisplayAttrs: &framework.DisplayAttributes{
				OperationPrefix: "syron",
			},
			Fields: map[string]*framework.FieldSchema{
				"id": {
					Type:        framework.TypeInt,
					Description: "Provider id.",
					Required:    true,
				},
				"principal": {
					Type:        framework.TypeString,
					Description: "Operator identity performing this change, checked against authset.RegisterProvider.",
				},
				"base_url": {
					Type:        framework.TypeString,
					Description: "Indexer provider base URL.",
				},
				"auth_header": {
					Type:        framework.TypeString,
					Description: "Optional auth header name.",
				},
				"auth_value": {
					Type:        framework.TypeString,
					Description: "Optional auth header value.",
				},
			},
			Operations: map[logical.Operation]framework.OperationHandler{
				logical.ReadOperation: &framework.PathOperation{
					Callback: b.pathProvidersRead,
				},
				logical.UpdateOperation: &framework.PathOperation{
					Callback: b.pathProvidersUpdate,
				},
				logical.DeleteOperation: &framework.PathOperation{
					Callback: b.pathProvidersDelete,
				},
			},
			HelpSynopsis: "Read, update, or remove a registered indexer provider.",
		},
	}
}

func requirePermission(ctx context.Context, req *logical.Request, data *framework.FieldData, perm authset.Permission) error {
	principal := data.Get("principal").(string)
	if principal == "" {
		return fmt.Errorf("syron: principal is required")
	}
	ok, err := authset.Has(ctx, req.Storage, principal, perm)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("syron: principal %q lacks permission %q", principal, perm)
	}
	return nil
}

func (b *syronBackend) pathProvidersList(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	records, err := provider.List(ctx, req.Storage)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	providers := make(map[string]interface{}, len(records))
	for _, rec := range records {
		key := fmt.Sprintf("%d", rec.ID)
		ids = append(ids, key)
		providers[key] = map[string]interface{}{
			"base_url":    rec.BaseURL,
			"auth_header": rec.AuthHeader,
		}
	}
	return logical.ListResponseWithInfo(ids, providers), nil
}

func (b *syronBackend) pathProvidersRegister(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	if err := requirePermission(ctx, req, data, authset.RegisterProvider); err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	rec, err := provider.Register(ctx, req.Storage, data.Get("base_url").(string), data.Get("auth_header").(string), data.Get("auth_value").(string))
	if err != nil {
		return nil, err
	}
	b.reset()
	return &logical.Response{Data: map[string]interface{}{"id": rec.ID, "base_url": rec.BaseURL}}, nil
}

func (b *syronBackend) pathProvidersRead(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	rec, err := provider.Get(ctx, req.Storage, uint32(data.Get("id").(int)))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &logical.Response{Data: map[string]interface{}{
		"id":          rec.ID,
		"base_url":    rec.BaseURL,
		"auth_header": rec.AuthHeader,
	}}, nil
}

func (b *syronBackend) pathProvidersUpdate(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	if err := requirePermission(ctx, req, data, authset.RegisterProvider); err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}

	id := uint32(data.Get("id").(int))
	existing, err := provider.Get(ctx, req.Storage, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return logical.ErrorResponse(fmt.Sprintf("provider %d is not registered", id)), nil
	}

	if v, ok := data.GetOk("base_url"); ok {
		existing.BaseURL = v.(string)
	}
	if v, ok := data.GetOk("auth_header"); ok {
		existing.AuthHeader = v.(string)
	}
	if v, ok := data.GetOk("auth_value"); ok {
		existing.AuthValue = v.(string)
	}
	if err := provider.Update(ctx, req.Storage, *existing); err != nil {
		return nil, err
	}
	b.reset()
	return nil, nil
}

func (b *syronBackend) pathProvidersDelete(ctx context.Context, req *logical.Request, data *framework.FieldData) (*logical.Response, error) {
	if err := requirePermission(ctx, req, data, authset.RegisterProvider); err != nil {
		return logical.ErrorResponse(err.Error()), nil
	}
	if err := provider.Remove(ctx, req.Storage, uint32(data.Get("id").(int))); err != nil {
		return nil, err
	}
	b.reset()
	return nil, nil
}

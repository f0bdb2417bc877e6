package syron

import (
	"github.com/hashicorp/vault/sdk/logical"

	"github.com/txalkan/basic-bitcoin-syron/internal/orchestrator"
)

// operationErrorResponse surfaces an orchestrator operation's dense error
// code (spec.md §6: 300-304 withdraw, 400-407 redeem, 500-502 liquidate,
// 600-601 payment) alongside its message, so RPC callers can branch on
// "code" instead of parsing the "error" string.
func operationErrorResponse(err error) *logical.Response {
	resp := logical.ErrorResponse(err.Error())
	if opErr, ok := err.(*orchestrator.OperationError); ok {
		resp.Data["code"] = opErr.Code
	}
	return resp
}

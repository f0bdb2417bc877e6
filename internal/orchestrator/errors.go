package orchestrator

import "fmt"

// OperationError carries the dense integer error code spec.md §6 assigns
// per operation family: 300-304 withdraw, 400-407 redeem, 500-502
// liquidate, 600-601 payment. It wraps the underlying cause so callers that
// only care about Unwrap()-compatible error chains still work, while the
// dispatch layer (path_*.go) surfaces Code directly to the RPC caller.
type OperationError struct {
	Code    int
	Message string
	Cause   error
}

func (e *OperationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("orchestrator: [%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("orchestrator: [%d] %s", e.Code, e.Message)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// Withdraw (get_syron) error codes (spec.md §6).
const (
	ErrWithdrawIndexerLookup   = 300 // indexer transport/parse failure verifying the inscription
	ErrWithdrawHolderMismatch  = 301 // inscription is not held at the service address
	ErrWithdrawAmountExceeds   = 302 // inscribed amount exceeds available balance (or caller-supplied slack)
	ErrWithdrawUtxoNotFound    = 303 // inscription UTXO not found among service UTXOs
	ErrWithdrawBuildOrSettle   = 304 // build/sign/broadcast/settle failure
)

func withdrawErr(code int, cause error) error {
	return &OperationError{Code: code, Message: withdrawMessage(code), Cause: cause}
}

func withdrawMessage(code int) string {
	switch code {
	case ErrWithdrawIndexerLookup:
		return "indexer lookup failed"
	case ErrWithdrawHolderMismatch:
		return "inscription is not held at the service address"
	case ErrWithdrawAmountExceeds:
		return "inscribed amount exceeds available balance"
	case ErrWithdrawUtxoNotFound:
		return "inscription utxo not found at service address"
	case ErrWithdrawBuildOrSettle:
		return "build, sign, broadcast, or settle failed"
	default:
		return "withdraw failed"
	}
}

// Redeem (redeem_btc) error codes (spec.md §6, §8 seed scenario 4: "loan=0
// -> error code 402").
const (
	ErrRedeemIndexerLookup  = 400 // indexer transport/parse failure verifying the inscription
	ErrRedeemHolderMismatch = 401 // inscription is not held at the SDB address
	ErrRedeemNoLoan         = 402 // loan == 0: nothing to redeem against
	ErrRedeemOutsideSlack   = 403 // inscribed amount outside the loan +/- slack window
	ErrRedeemUtxoNotFound   = 404 // inscription UTXO not found among SDB UTXOs
	ErrRedeemFetchUtxos     = 405 // BTC node RPC failure fetching SDB UTXOs
	ErrRedeemBuild          = 406 // transaction build failure (e.g. missing deposit)
	ErrRedeemBroadcastOrSettle = 407 // sign/broadcast/settle failure
)

func redeemErr(code int, cause error) error {
	return &OperationError{Code: code, Message: redeemMessage(code), Cause: cause}
}

func redeemMessage(code int) string {
	switch code {
	case ErrRedeemIndexerLookup:
		return "indexer lookup failed"
	case ErrRedeemHolderMismatch:
		return "inscription is not held at the SDB address"
	case ErrRedeemNoLoan:
		return "no outstanding loan"
	case ErrRedeemOutsideSlack:
		return "inscribed amount outside slack window of loan"
	case ErrRedeemUtxoNotFound:
		return "inscription utxo not found at SDB address"
	case ErrRedeemFetchUtxos:
		return "failed to fetch SDB utxos"
	case ErrRedeemBuild:
		return "transaction build failed"
	case ErrRedeemBroadcastOrSettle:
		return "sign, broadcast, or settle failed"
	default:
		return "redeem failed"
	}
}

// Liquidate error codes (spec.md §6, §8 seed scenario 5: "cr=12 001 ->
// error 500; cr=12 000 allowed").
const (
	ErrLiquidateRatioTooHigh  = 500 // collateral ratio is above the liquidation threshold
	ErrLiquidateUndercovered  = 501 // liquidator's covering inscription is less than the debtor's loan
	ErrLiquidateBuildOrSettle = 502 // build/sign/broadcast/settle failure in either leg
)

func liquidateErr(code int, cause error) error {
	return &OperationError{Code: code, Message: liquidateMessage(code), Cause: cause}
}

func liquidateMessage(code int) string {
	switch code {
	case ErrLiquidateRatioTooHigh:
		return "collateral ratio exceeds liquidation threshold"
	case ErrLiquidateUndercovered:
		return "covering inscription is less than debtor loan"
	case ErrLiquidateBuildOrSettle:
		return "build, sign, broadcast, or settle failed"
	default:
		return "liquidate failed"
	}
}

// Payment error codes (spec.md §6).
const (
	ErrPaymentInsufficientBalance = 600 // sender's available SUSD balance is less than the requested amount
	ErrPaymentInvalidArgs         = 601 // zero amount, or sender == recipient
)

func paymentErr(code int, cause error) error {
	return &OperationError{Code: code, Message: paymentMessage(code), Cause: cause}
}

func paymentMessage(code int) string {
	switch code {
	case ErrPaymentInsufficientBalance:
		return "sender has insufficient available SUSD balance"
	case ErrPaymentInvalidArgs:
		return "invalid payment arguments"
	default:
		return "payment failed"
	}
}

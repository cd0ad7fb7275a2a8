package domain

import (
	"errors"

	"github.com/samber/lo"
)

var (
	ErrInvalidWeights     = errors.New("total weightage must be 100%")
	ErrLengthMismatch     = errors.New("assets and weights length mismatch")
	ErrDuplicateAsset     = errors.New("duplicate asset")
	ErrEmptyBasket        = errors.New("basket must contain at least one asset")
	ErrUnknownAsset       = errors.New("unknown asset")
	ErrInvalidFund        = errors.New("invalid fund definition")
	ErrZeroAmount         = errors.New("amount must be greater than zero")
	ErrZeroValueDeposit   = errors.New("deposit has zero value")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInsufficientFee    = errors.New("insufficient fee token balance")
	ErrFeeNotApproved     = errors.New("fee token allowance too low")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrSwapFailed         = errors.New("swap failed")
	ErrUnauthorized       = errors.New("caller is not allowed to manage this fund")
	ErrFundNotFound       = errors.New("fund not found")
	ErrInsufficientFunds  = errors.New("insufficient balance")
)

// errorKinds maps sentinels to stable names used by API clients.
// A swap error that wraps a price error reports as SwapFailed.
var errorKinds = []lo.Tuple2[error, string]{
	{A: ErrInvalidWeights, B: "InvalidWeights"},
	{A: ErrLengthMismatch, B: "LengthMismatch"},
	{A: ErrDuplicateAsset, B: "DuplicateAsset"},
	{A: ErrEmptyBasket, B: "EmptyBasket"},
	{A: ErrUnknownAsset, B: "UnknownAsset"},
	{A: ErrInvalidFund, B: "InvalidFund"},
	{A: ErrZeroAmount, B: "ZeroAmount"},
	{A: ErrZeroValueDeposit, B: "ZeroValueDeposit"},
	{A: ErrInsufficientShares, B: "InsufficientShares"},
	{A: ErrInsufficientFee, B: "InsufficientFee"},
	{A: ErrFeeNotApproved, B: "FeeNotApproved"},
	{A: ErrSwapFailed, B: "SwapFailed"},
	{A: ErrPriceUnavailable, B: "PriceUnavailable"},
	{A: ErrUnauthorized, B: "Unauthorized"},
	{A: ErrFundNotFound, B: "FundNotFound"},
	{A: ErrInsufficientFunds, B: "InsufficientFunds"},
}

// ErrorKind returns the taxonomy name of err, or "Internal" when it matches no known sentinel.
func ErrorKind(err error) string {
	kind, ok := lo.Find(errorKinds, func(k lo.Tuple2[error, string]) bool {
		return errors.Is(err, k.A)
	})
	if !ok {
		return "Internal"
	}
	return kind.B
}

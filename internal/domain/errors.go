package domain

import "errors"

var (
	ErrSymbolNotFound         = errors.New("symbol not found")
	ErrSessionClosed          = errors.New("session closed")
	ErrInsufficientMarketData = errors.New("insufficient market data")
	ErrInsufficientHistory    = errors.New("insufficient trade history")
	ErrNoLiquidity            = errors.New("no liquidity on requested side")
	ErrSlippageExceeded       = errors.New("slippage exceeds limit")
	ErrValidation             = errors.New("invalid input")
	ErrNotFound               = errors.New("not found")
)

// ErrorKind maps a domain error to the stable machine-readable kind string
// used in API failure responses. Unrecognized errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrInsufficientMarketData):
		return "insufficient_market_data"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrNoLiquidity):
		return "no_liquidity"
	case errors.Is(err, ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

package domain

import (
	"fmt"
	"strings"
)

// Side is the direction of a trade or order. It is a closed set: only Buy and
// Sell exist, and all parsing goes through ParseSide.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide normalizes a wire-format side string. It accepts common aliases
// ("b"/"s", "bid"/"ask", upper case) and rejects everything else.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "bid":
		return SideBuy, nil
	case "sell", "s", "ask":
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: unknown side %q", ErrValidation, s)
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign returns +1 for buys and -1 for sells, the direction a fill moves a
// signed position.
func (s Side) Sign() float64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

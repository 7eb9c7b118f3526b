package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Decimals of the chain's native unit.
const Decimals = 18

var ether = new(big.Int).SetUint64(params.Ether)

// FormatUnits renders a base-unit integer as a decimal string with the given
// number of decimals. The result always has at least one fractional digit and
// no trailing zeros beyond it: 1e18 with 18 decimals is "1.0", 1e16 is "0.01".
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0.0"
	}

	divisor := ether
	if decimals != Decimals {
		divisor = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	}

	abs := new(big.Int).Abs(value)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	fracStr := "0"
	if decimals > 0 && frac.Sign() != 0 {
		fracStr = frac.String()
		fracStr = strings.Repeat("0", decimals-len(fracStr)) + fracStr
		fracStr = strings.TrimRight(fracStr, "0")
	}

	sign := ""
	if value.Sign() < 0 {
		sign = "-"
	}

	return sign + whole.String() + "." + fracStr
}

// FormatEther renders a wei amount in the native unit.
func FormatEther(value *big.Int) string {
	return FormatUnits(value, Decimals)
}

// FormatInt renders an integer as a plain decimal string. Nil renders as "0".
func FormatInt(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

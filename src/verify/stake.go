package verify

import (
	"fmt"
	"math/big"
	"strings"
)

// Fractional digits of the ledger's fixed point stake representation
const stakeFractionalDigits = 6

var stakeScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(stakeFractionalDigits), nil)

// NormalizeStake converts a decimal string in base-currency units to the
// ledger's fixed point integer. "5.25" becomes 5250000.
func NormalizeStake(value string) (normalized *big.Int, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty stake amount")
	}

	whole, fraction := value, ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole, fraction = value[:idx], value[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(fraction) > stakeFractionalDigits {
		return nil, fmt.Errorf("stake amount %s has more than %d fractional digits", value, stakeFractionalDigits)
	}
	fraction += strings.Repeat("0", stakeFractionalDigits-len(fraction))

	wholePart, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("malformed stake amount %s", value)
	}
	fractionPart := big.NewInt(0)
	if fraction != strings.Repeat("0", stakeFractionalDigits) {
		fractionPart, ok = new(big.Int).SetString(fraction, 10)
		if !ok || fractionPart.Sign() < 0 {
			return nil, fmt.Errorf("malformed stake amount %s", value)
		}
	}
	if wholePart.Sign() < 0 {
		return nil, fmt.Errorf("negative stake amount %s", value)
	}

	normalized = new(big.Int).Mul(wholePart, stakeScale)
	normalized.Add(normalized, fractionPart)
	return normalized, nil
}

// FormatStake renders the ledger's fixed point integer back to the decimal
// string stored in the cache
func FormatStake(value *big.Int) string {
	quotient, remainder := new(big.Int).QuoRem(value, stakeScale, new(big.Int))
	if remainder.Sign() == 0 {
		return quotient.String()
	}
	fraction := fmt.Sprintf("%0*s", stakeFractionalDigits, remainder.String())
	fraction = strings.TrimRight(fraction, "0")
	return quotient.String() + "." + fraction
}

package presale

import (
	"math/big"

	"github.com/holiman/uint256"
)

// fixedPointOne is 10^Precision, the scaling factor for prices and rates.
var fixedPointOne = new(big.Int).SetUint64(1_000_000_000)

// Canonical widths for the ledger's quantities: deposit currencies are 64-bit,
// token allocations are 128-bit. Any intermediate or final value escaping the
// width aborts the operation with ErrOverflow and no state mutation.
const (
	maxCurrencyBits = 64
	maxTokenBits    = 128
)

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return uint256.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	converted, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return converted, nil
}

// mulDiv computes a*b/den with 256-bit intermediate precision, bounding the
// result to maxBits. Division truncates toward zero.
func mulDiv(a, b, den *big.Int, maxBits int) (*big.Int, error) {
	x, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	d, err := toUint256(den)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, ErrInvalidAmount
	}
	result, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	if result.BitLen() > maxBits {
		return nil, ErrOverflow
	}
	return result.ToBig(), nil
}

// addBounded computes a+b, bounding the result to maxBits.
func addBounded(a, b *big.Int, maxBits int) (*big.Int, error) {
	x, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	result, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	if result.BitLen() > maxBits {
		return nil, ErrOverflow
	}
	return result.ToBig(), nil
}

func validRate(rate uint64) bool {
	return rate <= fixedPointOne.Uint64()
}

package farm

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// AccPrecision is the fixed-point scale applied to accRewardPerShare and
// reward debts.
const AccPrecision = 1_000_000_000_000_000_000

var accPrecisionBig = big.NewInt(AccPrecision)

// AccUnit returns a copy of the fixed-point scale.
func AccUnit() *big.Int {
	return new(big.Int).Set(accPrecisionBig)
}

// toWord converts a big integer into a 256-bit word. Negative values and
// values wider than 256 bits are rejected.
func toWord(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative operand %s", ErrArithmeticOverflow, v)
	}
	word, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: operand exceeds 256 bits", ErrArithmeticOverflow)
	}
	return word, nil
}

// MulDiv computes floor(a*b/c) with a 512-bit intermediate product. The result
// must fit in 256 bits.
func MulDiv(a, b, c *big.Int) (*big.Int, error) {
	x, err := toWord(a)
	if err != nil {
		return nil, err
	}
	y, err := toWord(b)
	if err != nil {
		return nil, err
	}
	d, err := toWord(c)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, fmt.Errorf("%w: division by zero", ErrArithmeticOverflow)
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("%w: mulDiv result exceeds 256 bits", ErrArithmeticOverflow)
	}
	return z.ToBig(), nil
}

// Scale lifts x into the fixed-point domain.
func Scale(x *big.Int) (*big.Int, error) {
	return CheckedMul(x, accPrecisionBig)
}

// Unscale drops the fixed-point fraction, rounding down.
func Unscale(x *big.Int) *big.Int {
	if x == nil || x.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(x, accPrecisionBig)
}

// CheckedMul multiplies two non-negative values inside 256 bits.
func CheckedMul(a, b *big.Int) (*big.Int, error) {
	x, err := toWord(a)
	if err != nil {
		return nil, err
	}
	y, err := toWord(b)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: multiplication exceeds 256 bits", ErrArithmeticOverflow)
	}
	return z.ToBig(), nil
}

// CheckedAdd adds two non-negative values inside 256 bits.
func CheckedAdd(a, b *big.Int) (*big.Int, error) {
	x, err := toWord(a)
	if err != nil {
		return nil, err
	}
	y, err := toWord(b)
	if err != nil {
		return nil, err
	}
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%w: addition exceeds 256 bits", ErrArithmeticOverflow)
	}
	return z.ToBig(), nil
}

// CheckedSub returns a-b and fails when the result would be negative.
func CheckedSub(a, b *big.Int) (*big.Int, error) {
	x, err := toWord(a)
	if err != nil {
		return nil, err
	}
	y, err := toWord(b)
	if err != nil {
		return nil, err
	}
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, fmt.Errorf("%w: subtraction underflow", ErrArithmeticOverflow)
	}
	return z.ToBig(), nil
}

// debtFor returns amount*accPerShare kept in the fixed-point domain. Debts are
// stored unscaled so settlement only rounds once, on payout.
func debtFor(amount, accPerShare *big.Int) (*big.Int, error) {
	return CheckedMul(amount, accPerShare)
}

// pendingFor is the settlement difference (amount*acc - debt)/AccPrecision
// rounded down. A debt larger than the accrued value is clamped to zero.
func pendingFor(amount, accPerShare, debt *big.Int) (*big.Int, error) {
	accrued, err := debtFor(amount, accPerShare)
	if err != nil {
		return nil, err
	}
	if debt != nil {
		if accrued.Cmp(debt) <= 0 {
			return big.NewInt(0), nil
		}
		accrued.Sub(accrued, debt)
	}
	return Unscale(accrued), nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}

package burnhook

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// FeePolicy is the fraction of a transfer destroyed by burn-and-transfer.
type FeePolicy struct {
	Numerator   uint64
	Denominator uint64
}

// DefaultFeePolicy burns one basis point.
var DefaultFeePolicy = FeePolicy{
	Numerator:   defaultFeeNumerator,
	Denominator: defaultFeeDenominator,
}

// Validate checks the policy describes a fraction no greater than one.
func (p FeePolicy) Validate() error {
	if p.Denominator == 0 {
		return errors.Wrap(ErrorCodeInvalidFeeConfiguration, "zero denominator")
	}
	if p.Numerator > p.Denominator {
		return errors.Wrapf(ErrorCodeInvalidFeeConfiguration, "numerator %d exceeds denominator %d", p.Numerator, p.Denominator)
	}
	return nil
}

// Split divides amount into the portion to burn, floor(amount * num / den),
// and the remainder to transfer. The product is computed in 256 bits so it
// can't wrap for any u64 inputs.
func (p FeePolicy) Split(amount uint64) (burn, transfer uint64, err error) {
	if p.Denominator == 0 {
		return 0, 0, errors.Wrap(ErrorCodeArithmeticOverflow, "division by zero denominator")
	}

	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(p.Numerator))
	if overflow {
		return 0, 0, errors.Wrap(ErrorCodeArithmeticOverflow, "fee multiplication overflow")
	}

	quotient := new(uint256.Int).Div(product, uint256.NewInt(p.Denominator))
	if !quotient.IsUint64() {
		return 0, 0, errors.Wrapf(ErrorCodeArithmeticOverflow, "burn amount %s exceeds u64", quotient.Dec())
	}

	remainder, underflow := new(uint256.Int).SubOverflow(uint256.NewInt(amount), quotient)
	if underflow {
		return 0, 0, errors.Wrapf(ErrorCodeArithmeticOverflow, "burn amount %s exceeds transfer amount %d", quotient.Dec(), amount)
	}

	return quotient.Uint64(), remainder.Uint64(), nil
}

func (p *Program) feePolicy(ctx context.Context) (FeePolicy, error) {
	policy := FeePolicy{
		Numerator:   p.conf.feeNumerator.Get(ctx),
		Denominator: p.conf.feeDenominator.Get(ctx),
	}
	if err := policy.Validate(); err != nil {
		return FeePolicy{}, err
	}
	return policy, nil
}

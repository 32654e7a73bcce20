// Package curve implements the constant-product math shared by the deposit,
// withdraw and swap handlers. All functions are pure: they take u64 reserve
// and supply figures, do intermediate arithmetic in 128 bits, and narrow back
// with explicit range checks. Any value that cannot be represented in 64 bits
// is a hard error, never a silent wrap.
package curve

import (
	"errors"

	"lukechampine.com/uint128"
)

// FeeDenominator is the basis-point scale for swap fees.
const FeeDenominator = 10_000

var (
	ErrOverflow        = errors.New("arithmetic overflow")
	ErrZeroAmount      = errors.New("amount must be greater than zero")
	ErrZeroSupply      = errors.New("claim supply is zero")
	ErrEmptyReserves   = errors.New("pool reserves are empty")
	ErrInvalidFee      = errors.New("fee exceeds fee denominator")
	ErrExcessiveBurn   = errors.New("burn amount exceeds claim supply")
	ErrDegenerateTrade = errors.New("trade resolves to zero on one side")
)

// SwapResult carries both legs of a swap: the amount actually debited from
// the trader and the amount credited back from the opposite reserve.
type SwapResult struct {
	Deposit  uint64
	Withdraw uint64
}

// DepositAmounts returns the reserve contributions required to mint l claim
// tokens against the current reserves, preserving the reserve ratio. Both
// results round up so a depositor can never underpay for the share minted.
//
// The supply==0 bootstrap case is deliberately not handled here: with no
// outstanding claims there is no ratio to preserve, and the caller seeds the
// reserves directly from its declared maximums.
func DepositAmounts(l, reserveX, reserveY, supply uint64) (uint64, uint64, error) {
	if l == 0 {
		return 0, 0, ErrZeroAmount
	}
	if supply == 0 {
		return 0, 0, ErrZeroSupply
	}

	x, err := mulDivCeil(l, reserveX, supply)
	if err != nil {
		return 0, 0, err
	}
	y, err := mulDivCeil(l, reserveY, supply)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// WithdrawAmounts returns the reserve payouts for burning l claim tokens.
// Both results round down, protecting the remaining providers from dilution.
// Burning the entire supply returns the exact reserve balances so rounding
// never strands dust in the vaults.
func WithdrawAmounts(l, reserveX, reserveY, supply uint64) (uint64, uint64, error) {
	if l == 0 {
		return 0, 0, ErrZeroAmount
	}
	if supply == 0 {
		return 0, 0, ErrZeroSupply
	}
	if l > supply {
		return 0, 0, ErrExcessiveBurn
	}
	if l == supply {
		return reserveX, reserveY, nil
	}

	x, err := mulDivFloor(l, reserveX, supply)
	if err != nil {
		return 0, 0, err
	}
	y, err := mulDivFloor(l, reserveY, supply)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// SwapAmounts prices a trade of amountIn against the (reserveIn, reserveOut)
// pair under the constant-product invariant, after deducting feeBps from the
// input. The fee deduction floors in the pool's favour, and the output is
//
//	out = reserveOut - (reserveIn*reserveOut)/(reserveIn + effectiveIn)
//
// with flooring division: the retained reserve is the floored quotient, so
// the division remainder goes to the payout. A zero result on either leg is
// rejected as degenerate.
func SwapAmounts(amountIn, reserveIn, reserveOut uint64, feeBps uint16) (SwapResult, error) {
	if amountIn == 0 {
		return SwapResult{}, ErrZeroAmount
	}
	if reserveIn == 0 || reserveOut == 0 {
		return SwapResult{}, ErrEmptyReserves
	}
	if uint64(feeBps) > FeeDenominator {
		return SwapResult{}, ErrInvalidFee
	}

	effectiveIn, err := mulDivFloor(amountIn, FeeDenominator-uint64(feeBps), FeeDenominator)
	if err != nil {
		return SwapResult{}, err
	}
	if effectiveIn == 0 {
		return SwapResult{}, ErrDegenerateTrade
	}

	// reserveIn + effectiveIn can exceed 64 bits, so the division stays in
	// 128-bit width end to end.
	k := uint128.From64(reserveIn).Mul64(reserveOut)
	denominator := uint128.From64(reserveIn).Add64(effectiveIn)
	newReserveOut := k.Div(denominator)
	if newReserveOut.Hi != 0 {
		return SwapResult{}, ErrOverflow
	}

	out := reserveOut - newReserveOut.Lo
	if out == 0 {
		return SwapResult{}, ErrDegenerateTrade
	}

	return SwapResult{Deposit: amountIn, Withdraw: out}, nil
}

// mulDivFloor computes a*b/d with a 128-bit intermediate, flooring.
func mulDivFloor(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrOverflow
	}
	q, _ := uint128.From64(a).Mul64(b).QuoRem64(d)
	if q.Hi != 0 {
		return 0, ErrOverflow
	}
	return q.Lo, nil
}

// mulDivCeil computes a*b/d with a 128-bit intermediate, rounding up.
func mulDivCeil(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrOverflow
	}
	q, r := uint128.From64(a).Mul64(b).QuoRem64(d)
	if r != 0 {
		q = q.Add64(1)
	}
	if q.Hi != 0 {
		return 0, ErrOverflow
	}
	return q.Lo, nil
}

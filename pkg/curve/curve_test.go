package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestDepositAmountsRoundsUp(t *testing.T) {
	// 3 claims against supply 7 over reserves (10, 20): exact shares are
	// 30/7 and 60/7, both fractional, so each leg rounds up.
	x, y, err := DepositAmounts(3, 10, 20, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(5), x)
	require.Equal(t, uint64(9), y)
}

func TestDepositAmountsExactRatio(t *testing.T) {
	x, y, err := DepositAmounts(50, 1000, 500, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(500), x)
	require.Equal(t, uint64(250), y)
}

func TestDepositAmountsRejectsZeroInputs(t *testing.T) {
	_, _, err := DepositAmounts(0, 1000, 500, 100)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, _, err = DepositAmounts(10, 1000, 500, 0)
	require.ErrorIs(t, err, ErrZeroSupply)
}

func TestDepositAmountsOverflow(t *testing.T) {
	_, _, err := DepositAmounts(2, math.MaxUint64, 1, 1)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestWithdrawAmountsRoundsDown(t *testing.T) {
	// 3 claims against supply 7 over reserves (10, 20): exact shares are
	// 30/7 and 60/7, floored.
	x, y, err := WithdrawAmounts(3, 10, 20, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(4), x)
	require.Equal(t, uint64(8), y)
}

func TestWithdrawFullSupplyDrainsExactly(t *testing.T) {
	// Burning the whole supply must return the vault balances verbatim,
	// even when proportional math would floor below them.
	x, y, err := WithdrawAmounts(7, 10, 20, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(10), x)
	require.Equal(t, uint64(20), y)
}

func TestWithdrawAmountsRejectsExcessiveBurn(t *testing.T) {
	_, _, err := WithdrawAmounts(8, 10, 20, 7)
	require.ErrorIs(t, err, ErrExcessiveBurn)
}

func TestWithdrawNeverExceedsDeposit(t *testing.T) {
	// Depositing l claims and immediately burning them can never pay out
	// more than was put in.
	cases := []struct {
		l, rx, ry, supply uint64
	}{
		{1, 10, 20, 7},
		{3, 10, 20, 7},
		{999, 123_456, 789_012, 55_555},
		{1, 1, 1, math.MaxUint64},
		{12345, 1_000_000_007, 999_999_937, 31_337},
	}
	for _, tc := range cases {
		inX, inY, err := DepositAmounts(tc.l, tc.rx, tc.ry, tc.supply)
		require.NoError(t, err)
		outX, outY, err := WithdrawAmounts(tc.l, tc.rx+inX, tc.ry+inY, tc.supply+tc.l)
		require.NoError(t, err)
		require.LessOrEqual(t, outX, inX)
		require.LessOrEqual(t, outY, inY)
	}
}

func TestSwapAmountsKnownTrade(t *testing.T) {
	// 100 in against (1000, 1000) at 30 bps: 99 effective after the fee,
	// new out-reserve floor(1000*1000/1099) = 909, so 91 comes out.
	res, err := SwapAmounts(100, 1000, 1000, 30)
	require.NoError(t, err)
	require.Equal(t, uint64(100), res.Deposit)
	require.Equal(t, uint64(91), res.Withdraw)
}

func TestSwapAmountsZeroFee(t *testing.T) {
	// floor(1000*1000/1100) = 909, out 91: the floored division rounds the
	// retained reserve down, never the payout up past the invariant.
	res, err := SwapAmounts(100, 1000, 1000, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(91), res.Withdraw)
}

func TestSwapAmountsRejectsBadInputs(t *testing.T) {
	_, err := SwapAmounts(0, 1000, 1000, 30)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = SwapAmounts(100, 0, 1000, 30)
	require.ErrorIs(t, err, ErrEmptyReserves)

	_, err = SwapAmounts(100, 1000, 0, 30)
	require.ErrorIs(t, err, ErrEmptyReserves)

	_, err = SwapAmounts(100, 1000, 1000, FeeDenominator+1)
	require.ErrorIs(t, err, ErrInvalidFee)
}

func TestSwapAmountsRejectsDegenerateTrade(t *testing.T) {
	// The fee consumes the entire input.
	_, err := SwapAmounts(1, 1000, 1000, 9_999)
	require.ErrorIs(t, err, ErrDegenerateTrade)
}

func TestSwapAmountsSweep(t *testing.T) {
	// Across a grid of reserves, amounts and fees: the payout never drains
	// the out-reserve, the retained reserve stays consistent with the
	// floored quotient, and the rounding slack is bounded by one division
	// remainder.
	reserves := []uint64{1_000, 1_000_000, 1_000_000_000_000}
	amounts := []uint64{1, 97, 10_000, 1_000_000}
	fees := []uint16{0, 1, 30, 100, 9_999}

	for _, rIn := range reserves {
		for _, rOut := range reserves {
			for _, in := range amounts {
				for _, fee := range fees {
					res, err := SwapAmounts(in, rIn, rOut, fee)
					if err != nil {
						continue
					}
					require.Equal(t, in, res.Deposit)
					require.Less(t, res.Withdraw, rOut,
						"payout drained the reserve: in=%d rIn=%d rOut=%d fee=%d", in, rIn, rOut, fee)

					eff := in * (FeeDenominator - uint64(fee)) / FeeDenominator
					k := uint128.From64(rIn).Mul64(rOut)
					denom := rIn + eff
					retained := uint128.From64(rOut - res.Withdraw)
					// retained = floor(k/denom): retained*denom <= k < (retained+1)*denom
					require.True(t, retained.Mul64(denom).Cmp(k) <= 0)
					require.True(t, retained.Add64(1).Mul64(denom).Cmp(k) > 0)
				}
			}
		}
	}
}

func TestSwapOutputMonotonicInInput(t *testing.T) {
	var prev uint64
	for in := uint64(10); in <= 100_000; in *= 10 {
		res, err := SwapAmounts(in, 1_000_000, 1_000_000, 30)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Withdraw, prev)
		prev = res.Withdraw
	}
}

func TestSwapFeeReducesOutput(t *testing.T) {
	free, err := SwapAmounts(10_000, 1_000_000, 1_000_000, 0)
	require.NoError(t, err)
	taxed, err := SwapAmounts(10_000, 1_000_000, 1_000_000, 500)
	require.NoError(t, err)
	require.Less(t, taxed.Withdraw, free.Withdraw)
}

package types

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestSafeMathCoreOperations(t *testing.T) {
	sm := NewSafeMath()

	sum, err := sm.SafeAdd(sdkmath.NewInt(10), sdkmath.NewInt(20))
	require.NoError(t, err)
	require.EqualValues(t, 30, sum.Int64())

	diff, err := sm.SafeSub(sdkmath.NewInt(20), sdkmath.NewInt(7))
	require.NoError(t, err)
	require.EqualValues(t, 13, diff.Int64())

	_, err = sm.SafeSub(sdkmath.NewInt(7), sdkmath.NewInt(20))
	require.ErrorIs(t, err, ErrArithmetic)

	product, err := sm.SafeMul(sdkmath.NewInt(12), sdkmath.NewInt(11))
	require.NoError(t, err)
	require.EqualValues(t, 132, product.Int64())

	mulDiv, err := sm.SafeMulDiv(sdkmath.NewInt(1000), sdkmath.NewInt(500), sdkmath.NewIntFromUint64(Precision))
	require.NoError(t, err)
	require.EqualValues(t, 50, mulDiv.Int64())

	_, err = sm.SafeMulDiv(sdkmath.NewInt(1), sdkmath.NewInt(1), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrArithmetic)

	scaled, err := sm.SafePrecisionMultiply(sdkmath.NewInt(1000), 2500)
	require.NoError(t, err)
	require.EqualValues(t, 250, scaled.Int64())
}

func TestSafeMathRejectsOverflow(t *testing.T) {
	sm := NewSafeMath()
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))

	_, err := sm.SafeMul(huge, huge)
	require.ErrorIs(t, err, ErrArithmetic)

	maxInt := sdkmath.NewIntFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	_, err = sm.SafeAdd(maxInt, sdkmath.OneInt())
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestCalculateCurrentPriceMatchesClosedForm(t *testing.T) {
	econ := NewTokenEconomics(DefaultParams())

	cases := []struct {
		supply uint64
		want   int64
	}{
		{0, 1_000_000},
		{99, 1_000_000},
		{100, 1_000_001},
		{500, 1_000_005},
		{12_345, 1_000_123},
		{1_000_000, 1_010_000},
	}
	for _, tc := range cases {
		econ.TotalSupply = sdkmath.NewIntFromUint64(tc.supply)
		price, err := econ.CalculateCurrentPrice()
		require.NoError(t, err)
		require.EqualValues(t, tc.want, price.Int64(), "supply %d", tc.supply)
	}
}

func TestCalculateCurrentPriceNonDecreasing(t *testing.T) {
	econ := NewTokenEconomics(DefaultParams())

	prev := sdkmath.ZeroInt()
	for supply := uint64(0); supply <= 50_000; supply += 7 {
		econ.TotalSupply = sdkmath.NewIntFromUint64(supply)
		price, err := econ.CalculateCurrentPrice()
		require.NoError(t, err)
		require.True(t, price.GTE(prev), "price dropped at supply %d", supply)
		prev = price
	}
}

func TestCalculateRewardRateBoundsAndShape(t *testing.T) {
	params := DefaultParams()
	econ := NewTokenEconomics(params)

	rate, err := econ.CalculateRewardRate()
	require.NoError(t, err)
	require.Equal(t, params.MaxRewardRate, rate)

	prev := rate
	for supply := uint64(1); supply < FullUtilizationSupply; supply += 37 {
		econ.TotalSupply = sdkmath.NewIntFromUint64(supply)
		rate, err := econ.CalculateRewardRate()
		require.NoError(t, err)
		require.LessOrEqual(t, rate, prev, "rate rose at supply %d", supply)
		require.GreaterOrEqual(t, rate, params.MinRewardRate)
		require.LessOrEqual(t, rate, params.MaxRewardRate)
		prev = rate
	}

	// Every 2500 tokens move utilization by 25 points and the rate by exactly 10.
	for supply := uint64(0); supply+2500 <= FullUtilizationSupply; supply += 2500 {
		before, err := RewardRateAtSupply(params.MinRewardRate, params.MaxRewardRate, sdkmath.NewIntFromUint64(supply))
		require.NoError(t, err)
		after, err := RewardRateAtSupply(params.MinRewardRate, params.MaxRewardRate, sdkmath.NewIntFromUint64(supply+2500))
		require.NoError(t, err)
		require.Equal(t, before-10, after, "supply %d", supply)
	}

	for _, supply := range []uint64{FullUtilizationSupply, FullUtilizationSupply + 1, 50_000_000} {
		econ.TotalSupply = sdkmath.NewIntFromUint64(supply)
		rate, err := econ.CalculateRewardRate()
		require.NoError(t, err)
		require.Equal(t, params.MinRewardRate, rate)
	}
}

func TestRewardRateReadsAreIdempotent(t *testing.T) {
	econ := NewTokenEconomics(DefaultParams())
	econ.TotalSupply = sdkmath.NewInt(123_456)

	firstPrice, err := econ.CalculateCurrentPrice()
	require.NoError(t, err)
	firstRate, err := econ.CalculateRewardRate()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		price, err := econ.CalculateCurrentPrice()
		require.NoError(t, err)
		require.True(t, firstPrice.Equal(price))
		rate, err := econ.CalculateRewardRate()
		require.NoError(t, err)
		require.Equal(t, firstRate, rate)
	}
}

func TestRewardRateRejectsInvertedBounds(t *testing.T) {
	_, err := RewardRateAtSupply(5000, 1000, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrArithmetic)
}

func TestTokenEconomicsValidate(t *testing.T) {
	econ := NewTokenEconomics(DefaultParams())
	require.NoError(t, econ.Validate())

	bad := econ
	bad.Treasury = sdkmath.Int{}
	require.Error(t, bad.Validate())

	bad = econ
	bad.TotalSupply = sdkmath.NewInt(-1)
	require.Error(t, bad.Validate())

	bad = econ
	bad.MinRewardRate = bad.MaxRewardRate + 1
	require.Error(t, bad.Validate())
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	cases := map[string]func(*Params){
		"empty denom":        func(p *Params) { p.Denom = "" },
		"zero base price":    func(p *Params) { p.BasePrice = 0 },
		"inverted rates":     func(p *Params) { p.MinRewardRate = p.MaxRewardRate + 1 },
		"rate above 100%":    func(p *Params) { p.MaxRewardRate = Precision + 1 },
		"zero fee divisor":   func(p *Params) { p.ProtocolFeeDivisor = 0 },
		"exit fee over 100%": func(p *Params) { p.EarlyUnstakeFee = Precision + 1 },
		"zero epoch length":  func(p *Params) { p.BlocksPerEpoch = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := DefaultParams()
			mutate(&p)
			require.Error(t, p.Validate())
		})
	}
}

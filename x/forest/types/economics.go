package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// TokenEconomics is the process-wide pricing, supply and treasury state.
//
// It is created exactly once and mutated by every purchase. All monetary
// fields are in Params.Denom base units.
type TokenEconomics struct {
	TotalSupply     sdkmath.Int `json:"total_supply"`
	BasePrice       sdkmath.Int `json:"base_price"`
	PriceMultiplier sdkmath.Int `json:"price_multiplier"`
	MaxRewardRate   uint64      `json:"max_reward_rate"`
	MinRewardRate   uint64      `json:"min_reward_rate"`
	Treasury        sdkmath.Int `json:"treasury"`
}

// NewTokenEconomics returns zero-supply economics configured from params.
func NewTokenEconomics(params Params) TokenEconomics {
	return TokenEconomics{
		TotalSupply:     sdkmath.ZeroInt(),
		BasePrice:       sdkmath.NewIntFromUint64(params.BasePrice),
		PriceMultiplier: sdkmath.NewIntFromUint64(params.PriceMultiplier),
		MaxRewardRate:   params.MaxRewardRate,
		MinRewardRate:   params.MinRewardRate,
		Treasury:        sdkmath.ZeroInt(),
	}
}

// Validate checks the economics record is internally consistent.
func (e TokenEconomics) Validate() error {
	for name, v := range map[string]sdkmath.Int{
		"total supply":     e.TotalSupply,
		"base price":       e.BasePrice,
		"price multiplier": e.PriceMultiplier,
		"treasury":         e.Treasury,
	} {
		if v.IsNil() {
			return fmt.Errorf("%s cannot be empty", name)
		}
		if v.IsNegative() {
			return fmt.Errorf("%s cannot be negative: %s", name, v)
		}
	}
	if e.MinRewardRate > e.MaxRewardRate {
		return fmt.Errorf("min reward rate (%d) cannot exceed max reward rate (%d)", e.MinRewardRate, e.MaxRewardRate)
	}
	if e.MaxRewardRate > Precision {
		return fmt.Errorf("max reward rate must be in [0, %d], got %d", Precision, e.MaxRewardRate)
	}
	return nil
}

// CalculateCurrentPrice returns base_price + total_supply * price_multiplier / Precision.
func (e TokenEconomics) CalculateCurrentPrice() (sdkmath.Int, error) {
	return PriceAtSupply(e.BasePrice, e.PriceMultiplier, e.TotalSupply)
}

// PriceAtSupply evaluates the linear bonding curve at supply.
func PriceAtSupply(basePrice, multiplier, supply sdkmath.Int) (sdkmath.Int, error) {
	sm := NewSafeMath()
	increment, err := sm.SafeMulDiv(supply, multiplier, sdkmath.NewIntFromUint64(Precision))
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return sm.SafeAdd(basePrice, increment)
}

// CalculateRewardRate derives the staking reward rate from supply utilization.
//
// Utilization is total_supply scaled against FullUtilizationSupply. At or above
// full utilization the rate is MinRewardRate; below it the rate falls linearly
// from MaxRewardRate (zero supply) towards MinRewardRate.
func (e TokenEconomics) CalculateRewardRate() (uint64, error) {
	return RewardRateAtSupply(e.MinRewardRate, e.MaxRewardRate, e.TotalSupply)
}

// RewardRateAtSupply evaluates the reward-rate curve at supply.
func RewardRateAtSupply(minRate, maxRate uint64, supply sdkmath.Int) (uint64, error) {
	if minRate > maxRate {
		return 0, errorsmod.Wrapf(ErrArithmetic, "reward rate bounds inverted: min %d > max %d", minRate, maxRate)
	}

	precision := sdkmath.NewIntFromUint64(Precision)
	supplyPct, err := NewSafeMath().SafeMulDiv(supply, precision, sdkmath.NewIntFromUint64(FullUtilizationSupply))
	if err != nil {
		return 0, err
	}
	if supplyPct.GTE(precision) {
		return minRate, nil
	}

	// supplyPct < Precision, so every term below fits comfortably in uint64.
	remaining := Precision - supplyPct.Uint64()
	return minRate + (maxRate-minRate)*remaining/Precision, nil
}

package types

import (
	"fmt"
	"strings"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

const (
	// Precision is the fixed-point scale for rates and fees (10000 = 100%).
	Precision uint64 = 10_000

	// FullUtilizationSupply is the supply at which the reward rate bottoms out.
	FullUtilizationSupply uint64 = 1_000_000

	// DefaultDenom is the native payment denomination.
	DefaultDenom = "ufbnd"
)

// Params are the economics and pool defaults for the forest module.
type Params struct {
	Denom string `json:"denom" mapstructure:"denom" yaml:"denom"`

	// BasePrice is the token price at zero supply, in Denom base units.
	BasePrice uint64 `json:"base_price" mapstructure:"base_price" yaml:"base_price"`

	// PriceMultiplier is the price increase per token of supply, scaled by Precision.
	PriceMultiplier uint64 `json:"price_multiplier" mapstructure:"price_multiplier" yaml:"price_multiplier"`

	MaxRewardRate uint64 `json:"max_reward_rate" mapstructure:"max_reward_rate" yaml:"max_reward_rate"`
	MinRewardRate uint64 `json:"min_reward_rate" mapstructure:"min_reward_rate" yaml:"min_reward_rate"`

	// ProtocolFeeDivisor splits total_cost / divisor into the treasury.
	ProtocolFeeDivisor uint64 `json:"protocol_fee_divisor" mapstructure:"protocol_fee_divisor" yaml:"protocol_fee_divisor"`

	// EarlyUnstakeFee is copied onto each pool at creation.
	EarlyUnstakeFee uint64 `json:"early_unstake_fee" mapstructure:"early_unstake_fee" yaml:"early_unstake_fee"`

	// BlocksPerEpoch converts block height into the epoch counter.
	BlocksPerEpoch uint64 `json:"blocks_per_epoch" mapstructure:"blocks_per_epoch" yaml:"blocks_per_epoch"`
}

// DefaultParams returns default module parameters.
func DefaultParams() Params {
	return Params{
		Denom:              DefaultDenom,
		BasePrice:          1_000_000,
		PriceMultiplier:    100,
		MaxRewardRate:      5000, // 50%
		MinRewardRate:      1000, // 10%
		ProtocolFeeDivisor: 10,   // 10% of total cost
		EarlyUnstakeFee:    1000, // 10% of principal
		BlocksPerEpoch:     1,
	}
}

// Validate checks that params are well-formed.
func (p Params) Validate() error {
	if err := sdk.ValidateDenom(strings.TrimSpace(p.Denom)); err != nil {
		return fmt.Errorf("invalid denom %q: %w", p.Denom, err)
	}
	if p.BasePrice == 0 {
		return fmt.Errorf("base price must be positive")
	}
	if p.MinRewardRate > p.MaxRewardRate {
		return fmt.Errorf("min reward rate (%d) cannot exceed max reward rate (%d)", p.MinRewardRate, p.MaxRewardRate)
	}
	if p.MaxRewardRate > Precision {
		return fmt.Errorf("max reward rate must be in [0, %d], got %d", Precision, p.MaxRewardRate)
	}
	if p.ProtocolFeeDivisor == 0 {
		return fmt.Errorf("protocol fee divisor must be positive")
	}
	if p.EarlyUnstakeFee > Precision {
		return fmt.Errorf("early unstake fee must be in [0, %d], got %d", Precision, p.EarlyUnstakeFee)
	}
	if p.BlocksPerEpoch == 0 {
		return fmt.Errorf("blocks per epoch must be positive")
	}
	return nil
}

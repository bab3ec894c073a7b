package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// Bonus tiers applied to rewards by purchase size.
const (
	BonusNone   uint64 = 100
	BonusSilver uint64 = 110
	BonusGold   uint64 = 120

	SilverTierAmount uint64 = 500
	GoldTierAmount   uint64 = 1000

	// BonusScale is the denominator of BonusMultiplier.
	BonusScale uint64 = 100
)

// StakeToken is a single staked position owned by its purchaser.
type StakeToken struct {
	ID              string      `json:"id"`
	PoolID          string      `json:"pool_id"`
	Amount          sdkmath.Int `json:"amount"`
	StakedAt        uint64      `json:"staked_at"`
	Owner           string      `json:"owner"`
	BonusMultiplier uint64      `json:"bonus_multiplier"`
}

// Validate performs stateless validation of a stored stake token.
func (s StakeToken) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("stake id cannot be empty")
	}
	if strings.TrimSpace(s.PoolID) == "" {
		return fmt.Errorf("stake %s: pool id cannot be empty", s.ID)
	}
	if strings.TrimSpace(s.Owner) == "" {
		return fmt.Errorf("stake %s: owner cannot be empty", s.ID)
	}
	if s.Amount.IsNil() || s.Amount.IsNegative() {
		return fmt.Errorf("stake %s: amount must be non-negative", s.ID)
	}
	switch s.BonusMultiplier {
	case BonusNone, BonusSilver, BonusGold:
	default:
		return fmt.Errorf("stake %s: unknown bonus multiplier %d", s.ID, s.BonusMultiplier)
	}
	return nil
}

// BonusMultiplierFor returns the bonus tier for a purchase of amount tokens.
func BonusMultiplierFor(amount uint64) uint64 {
	switch {
	case amount >= GoldTierAmount:
		return BonusGold
	case amount >= SilverTierAmount:
		return BonusSilver
	default:
		return BonusNone
	}
}

// PurchaseQuote is the priced breakdown of a buy-and-stake.
type PurchaseQuote struct {
	Amount          uint64      `json:"amount"`
	Price           sdkmath.Int `json:"price"`
	TotalCost       sdkmath.Int `json:"total_cost"`
	ProtocolFee     sdkmath.Int `json:"protocol_fee"`
	StakeAmount     sdkmath.Int `json:"stake_amount"`
	BonusMultiplier uint64      `json:"bonus_multiplier"`
}

// QuotePurchase prices amount tokens at the current curve position.
// The whole purchase is charged at the pre-purchase price.
func QuotePurchase(econ TokenEconomics, amount uint64, feeDivisor uint64) (PurchaseQuote, error) {
	if feeDivisor == 0 {
		return PurchaseQuote{}, errorsmod.Wrap(ErrArithmetic, "protocol fee divisor is zero")
	}
	sm := NewSafeMath()

	price, err := econ.CalculateCurrentPrice()
	if err != nil {
		return PurchaseQuote{}, err
	}
	totalCost, err := sm.SafeMul(price, sdkmath.NewIntFromUint64(amount))
	if err != nil {
		return PurchaseQuote{}, err
	}
	fee := totalCost.Quo(sdkmath.NewIntFromUint64(feeDivisor))
	stakeAmount, err := sm.SafeSub(totalCost, fee)
	if err != nil {
		return PurchaseQuote{}, err
	}

	return PurchaseQuote{
		Amount:          amount,
		Price:           price,
		TotalCost:       totalCost,
		ProtocolFee:     fee,
		StakeAmount:     stakeAmount,
		BonusMultiplier: BonusMultiplierFor(amount),
	}, nil
}

// ComputeClaim returns the reward and total payout for a stake at rewardRate.
//
// effective_rate = rewardRate * bonus / 100
// reward         = amount * effective_rate / Precision
func ComputeClaim(stake StakeToken, rewardRate uint64) (reward, payout sdkmath.Int, err error) {
	sm := NewSafeMath()
	effectiveRate := rewardRate * stake.BonusMultiplier / BonusScale

	reward, err = sm.SafePrecisionMultiply(stake.Amount, effectiveRate)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	payout, err = sm.SafeAdd(stake.Amount, reward)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return reward, payout, nil
}

// ComputeEarlyExit returns the forfeited fee and the payout for leaving a pool
// before its period ends.
func ComputeEarlyExit(amount sdkmath.Int, feeRate uint64) (fee, payout sdkmath.Int, err error) {
	sm := NewSafeMath()
	fee, err = sm.SafePrecisionMultiply(amount, feeRate)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	payout, err = sm.SafeSub(amount, fee)
	if err != nil {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), err
	}
	return fee, payout, nil
}

// StakeQuote previews a buy-and-stake against a specific pool, including the
// reward a claim would pay if the reward rate stayed at its post-purchase value.
type StakeQuote struct {
	PurchaseQuote
	PoolID          string      `json:"pool_id"`
	PoolActive      bool        `json:"pool_active"`
	RewardRateAfter uint64      `json:"reward_rate_after"`
	ProjectedReward sdkmath.Int `json:"projected_reward"`
	ProjectedPayout sdkmath.Int `json:"projected_payout"`
}

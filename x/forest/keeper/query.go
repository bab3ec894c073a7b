package keeper

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/firebond/firebond/x/forest/types"
)

// QuoteStake previews a buy-and-stake of amount tokens into poolID without
// touching state. The projected reward assumes the pool rate stays at the
// value the purchase itself would set.
func (k Keeper) QuoteStake(ctx context.Context, poolID string, amount uint64) (*types.StakeQuote, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	econ, err := k.GetEconomics(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := k.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	purchase, err := types.QuotePurchase(*econ, amount, params.ProtocolFeeDivisor)
	if err != nil {
		return nil, err
	}

	after := *econ
	if after.TotalSupply, err = types.NewSafeMath().SafeAdd(econ.TotalSupply, sdkmath.NewIntFromUint64(amount)); err != nil {
		return nil, err
	}
	rate, err := after.CalculateRewardRate()
	if err != nil {
		return nil, err
	}
	reward, payout, err := types.ComputeClaim(types.StakeToken{
		Amount:          purchase.StakeAmount,
		BonusMultiplier: purchase.BonusMultiplier,
	}, rate)
	if err != nil {
		return nil, err
	}

	return &types.StakeQuote{
		PurchaseQuote:   purchase,
		PoolID:          pool.ID,
		PoolActive:      pool.IsActive,
		RewardRateAfter: rate,
		ProjectedReward: reward,
		ProjectedPayout: payout,
	}, nil
}

// PoolCoverage reports, for every pool, how much live stake principal its
// custody backs. Claims pay rewards out of the same custody, so later stakers
// in a pool can be left uncovered; a claim or exit that would overdraw custody
// fails with ErrPoolUndercollateralized.
func (k Keeper) PoolCoverage(ctx context.Context) ([]types.PoolCoverage, error) {
	pools, err := k.ListPools(ctx)
	if err != nil {
		return nil, err
	}

	coverage := make([]types.PoolCoverage, 0, len(pools))
	for _, pool := range pools {
		stakes, err := k.StakesByPool(ctx, pool.ID)
		if err != nil {
			return nil, err
		}
		outstanding := sdkmath.ZeroInt()
		for _, stake := range stakes {
			outstanding = outstanding.Add(stake.Amount)
		}
		shortfall := sdkmath.ZeroInt()
		if outstanding.GT(pool.TotalStaked) {
			shortfall = outstanding.Sub(pool.TotalStaked)
		}
		coverage = append(coverage, types.PoolCoverage{
			PoolID:      pool.ID,
			IsActive:    pool.IsActive,
			TotalStaked: pool.TotalStaked,
			Outstanding: outstanding,
			LiveStakes:  len(stakes),
			Shortfall:   shortfall,
		})
	}
	return coverage, nil
}

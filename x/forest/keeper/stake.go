package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/firebond/firebond/x/forest/types"
)

// BuyAndStake prices msg.Amount tokens on the bonding curve, charges the buyer,
// routes the protocol fee to the treasury and stakes the remainder into the
// pool as a new stake token.
//
// Supply grows by the requested token amount, not by the net staked value.
// The pool's reward rate is recomputed from the post-purchase supply.
func (k Keeper) BuyAndStake(ctx context.Context, msg types.MsgBuyAndStake) (*types.StakeToken, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, invalidMsg(err)
	}
	buyer, err := sdk.AccAddressFromBech32(msg.Buyer)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidRequest, "invalid buyer address: %s", err)
	}

	var (
		stake types.StakeToken
		econ  *types.TokenEconomics
		quote types.PurchaseQuote
	)
	err = k.atomically(ctx, func(ctx context.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		econ, err = k.GetEconomics(ctx)
		if err != nil {
			return err
		}
		pool, err := k.GetPool(ctx, msg.PoolID)
		if err != nil {
			return err
		}

		if msg.Amount < pool.MinStakeAmount {
			return errorsmod.Wrapf(types.ErrInsufficientAmount, "stake amount %d below pool minimum %d", msg.Amount, pool.MinStakeAmount)
		}
		if !pool.IsActive {
			return errorsmod.Wrapf(types.ErrPoolInactive, "pool %s", pool.ID)
		}

		quote, err = types.QuotePurchase(*econ, msg.Amount, params.ProtocolFeeDivisor)
		if err != nil {
			return err
		}
		if msg.Payment.Denom != params.Denom {
			return errorsmod.Wrapf(types.ErrInsufficientAmount, "payment denom %s, expected %s", msg.Payment.Denom, params.Denom)
		}
		if msg.Payment.Amount.LT(quote.TotalCost) {
			return errorsmod.Wrapf(types.ErrInsufficientAmount, "payment %s below cost %s", msg.Payment.Amount, quote.TotalCost)
		}

		if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, buyer, types.ModuleName, coins(params.Denom, quote.TotalCost)); err != nil {
			return err
		}
		if quote.ProtocolFee.IsPositive() {
			if err := k.bankKeeper.SendCoinsFromModuleToModule(ctx, types.ModuleName, types.TreasuryModuleName, coins(params.Denom, quote.ProtocolFee)); err != nil {
				return err
			}
		}

		sm := types.NewSafeMath()
		if econ.Treasury, err = sm.SafeAdd(econ.Treasury, quote.ProtocolFee); err != nil {
			return err
		}
		if econ.TotalSupply, err = sm.SafeAdd(econ.TotalSupply, sdkmath.NewIntFromUint64(msg.Amount)); err != nil {
			return err
		}
		newPrice, err := econ.CalculateCurrentPrice()
		if err != nil {
			return err
		}
		newRate, err := econ.CalculateRewardRate()
		if err != nil {
			return err
		}
		if err := k.setEconomics(ctx, *econ); err != nil {
			return err
		}

		if pool.TotalStaked, err = sm.SafeAdd(pool.TotalStaked, quote.StakeAmount); err != nil {
			return err
		}
		pool.CurrentRewardRate = newRate
		if err := k.setPool(ctx, *pool); err != nil {
			return err
		}

		id, err := k.nextStakeID(ctx)
		if err != nil {
			return err
		}
		stake = types.StakeToken{
			ID:              id,
			PoolID:          pool.ID,
			Amount:          quote.StakeAmount,
			StakedAt:        currentEpoch(ctx, params),
			Owner:           msg.Buyer,
			BonusMultiplier: quote.BonusMultiplier,
		}
		if err := k.setStake(ctx, stake); err != nil {
			return err
		}

		supply := econ.TotalSupply.String()
		emitEventIfPossible(ctx, sdk.NewEvent(
			types.EventTypePriceUpdated,
			sdk.NewAttribute(types.AttributeKeyNewPrice, newPrice.String()),
			sdk.NewAttribute(types.AttributeKeyTotalSupply, supply),
		))
		emitEventIfPossible(ctx, sdk.NewEvent(
			types.EventTypeRewardRateUpdated,
			sdk.NewAttribute(types.AttributeKeyNewRate, strconv.FormatUint(newRate, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalSupply, supply),
		))
		emitEventIfPossible(ctx, sdk.NewEvent(
			types.EventTypeStakeCreated,
			sdk.NewAttribute(types.AttributeKeyTokenID, stake.ID),
			sdk.NewAttribute(types.AttributeKeyAmount, stake.Amount.String()),
			sdk.NewAttribute(types.AttributeKeyOwner, stake.Owner),
			sdk.NewAttribute(types.AttributeKeyPoolID, stake.PoolID),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.metrics.observePurchase(*econ)
	return &stake, nil
}

// ClaimRewards pays principal plus reward for a stake whose pool period has
// ended, and consumes the stake token.
//
// The payout is drawn from the pool's pooled custody. A payout larger than the
// pool's remaining custody is rejected rather than driving it negative.
func (k Keeper) ClaimRewards(ctx context.Context, msg types.MsgClaimRewards) (sdkmath.Int, error) {
	if err := msg.ValidateBasic(); err != nil {
		return sdkmath.ZeroInt(), invalidMsg(err)
	}

	var (
		payout sdkmath.Int
		reward sdkmath.Int
	)
	err := k.atomically(ctx, func(ctx context.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		stake, err := k.GetStake(ctx, msg.StakeID)
		if err != nil {
			return err
		}
		pool, err := k.GetPool(ctx, stake.PoolID)
		if err != nil {
			return err
		}

		if !pool.IsActive {
			return errorsmod.Wrapf(types.ErrPoolInactive, "pool %s", pool.ID)
		}
		epoch := currentEpoch(ctx, params)
		if !pool.PeriodEnded(epoch) {
			return errorsmod.Wrapf(types.ErrPeriodNotEnded, "epoch %d before period end %d", epoch, pool.PeriodEnd)
		}
		if msg.Caller != stake.Owner {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s does not own stake %s", msg.Caller, stake.ID)
		}

		reward, payout, err = types.ComputeClaim(*stake, pool.CurrentRewardRate)
		if err != nil {
			return err
		}
		if payout.GT(pool.TotalStaked) {
			k.Logger(ctx).Warn("claim rejected: pool custody below payout",
				"pool_id", pool.ID,
				"stake_id", stake.ID,
				"payout", payout.String(),
				"total_staked", pool.TotalStaked.String(),
			)
			return errorsmod.Wrapf(types.ErrPoolUndercollateralized, "payout %s exceeds pool %s custody %s", payout, pool.ID, pool.TotalStaked)
		}

		return k.payOut(ctx, params, pool, stake, payout, payout, sdk.NewEvent(
			types.EventTypeRewardsClaimed,
			sdk.NewAttribute(types.AttributeKeyTokenID, stake.ID),
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.ID),
			sdk.NewAttribute(types.AttributeKeyOwner, stake.Owner),
			sdk.NewAttribute(types.AttributeKeyAmount, stake.Amount.String()),
			sdk.NewAttribute(types.AttributeKeyReward, reward.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
		))
	})
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	k.metrics.observeClaim(payout)
	return payout, nil
}

// EarlyUnstake returns principal minus the pool's early-unstake fee and
// consumes the stake token. No period-end requirement applies.
//
// The pool's custody shrinks by the full principal. The fee is burned, so it
// is credited to neither the treasury nor the pool.
func (k Keeper) EarlyUnstake(ctx context.Context, msg types.MsgEarlyUnstake) (sdkmath.Int, error) {
	if err := msg.ValidateBasic(); err != nil {
		return sdkmath.ZeroInt(), invalidMsg(err)
	}

	var payout sdkmath.Int
	err := k.atomically(ctx, func(ctx context.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		stake, err := k.GetStake(ctx, msg.StakeID)
		if err != nil {
			return err
		}
		pool, err := k.GetPool(ctx, stake.PoolID)
		if err != nil {
			return err
		}

		if !pool.IsActive {
			return errorsmod.Wrapf(types.ErrPoolInactive, "pool %s", pool.ID)
		}
		if msg.Caller != stake.Owner {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s does not own stake %s", msg.Caller, stake.ID)
		}

		var fee sdkmath.Int
		fee, payout, err = types.ComputeEarlyExit(stake.Amount, pool.EarlyUnstakeFee)
		if err != nil {
			return err
		}
		if stake.Amount.GT(pool.TotalStaked) {
			return errorsmod.Wrapf(types.ErrPoolUndercollateralized, "stake %s exceeds pool %s custody %s", stake.Amount, pool.ID, pool.TotalStaked)
		}

		if fee.IsPositive() {
			if err := k.bankKeeper.BurnCoins(ctx, types.ModuleName, coins(params.Denom, fee)); err != nil {
				return err
			}
		}

		return k.payOut(ctx, params, pool, stake, stake.Amount, payout, sdk.NewEvent(
			types.EventTypeEarlyUnstaked,
			sdk.NewAttribute(types.AttributeKeyTokenID, stake.ID),
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.ID),
			sdk.NewAttribute(types.AttributeKeyOwner, stake.Owner),
			sdk.NewAttribute(types.AttributeKeyAmount, stake.Amount.String()),
			sdk.NewAttribute(types.AttributeKeyFee, fee.String()),
			sdk.NewAttribute(types.AttributeKeyPayout, payout.String()),
		))
	})
	if err != nil {
		return sdkmath.ZeroInt(), err
	}

	k.metrics.observeEarlyExit(payout)
	return payout, nil
}

// payOut debits the pool by withdrawn, transfers payout to the stake owner and
// consumes the stake token.
func (k Keeper) payOut(
	ctx context.Context,
	params types.Params,
	pool *types.StakingPool,
	stake *types.StakeToken,
	withdrawn sdkmath.Int,
	payout sdkmath.Int,
	event sdk.Event,
) error {
	var err error
	if pool.TotalStaked, err = types.NewSafeMath().SafeSub(pool.TotalStaked, withdrawn); err != nil {
		return err
	}
	if err := k.setPool(ctx, *pool); err != nil {
		return err
	}

	owner, err := sdk.AccAddressFromBech32(stake.Owner)
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidRequest, "invalid owner address: %s", err)
	}
	if payout.IsPositive() {
		if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, owner, coins(params.Denom, payout)); err != nil {
			return err
		}
	}
	if err := k.removeStake(ctx, *stake); err != nil {
		return err
	}

	emitEventIfPossible(ctx, event)
	return nil
}

// GetStake loads a live stake token.
func (k Keeper) GetStake(ctx context.Context, stakeID string) (*types.StakeToken, error) {
	raw, err := k.Stakes.Get(ctx, stakeID)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, errorsmod.Wrapf(types.ErrStakeNotFound, "stake %s", stakeID)
	}
	if err != nil {
		return nil, err
	}
	stake, err := decodeStake(raw)
	if err != nil {
		return nil, err
	}
	return &stake, nil
}

// StakesByOwner returns the live stake tokens held by owner.
func (k Keeper) StakesByOwner(ctx context.Context, owner string) ([]types.StakeToken, error) {
	return k.collectStakes(ctx, k.OwnerIndex, owner)
}

// StakesByPool returns the live stake tokens referencing poolID.
func (k Keeper) StakesByPool(ctx context.Context, poolID string) ([]types.StakeToken, error) {
	return k.collectStakes(ctx, k.PoolIndex, poolID)
}

// ListStakes returns every live stake token in id order.
func (k Keeper) ListStakes(ctx context.Context) ([]types.StakeToken, error) {
	var stakes []types.StakeToken
	err := k.Stakes.Walk(ctx, nil, func(_ string, raw string) (bool, error) {
		stake, err := decodeStake(raw)
		if err != nil {
			return true, err
		}
		stakes = append(stakes, stake)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return stakes, nil
}

func (k Keeper) collectStakes(
	ctx context.Context,
	index collections.KeySet[collections.Pair[string, string]],
	prefix string,
) ([]types.StakeToken, error) {
	var stakes []types.StakeToken
	rng := collections.NewPrefixedPairRange[string, string](prefix)
	err := index.Walk(ctx, rng, func(key collections.Pair[string, string]) (bool, error) {
		stake, err := k.GetStake(ctx, key.K2())
		if err != nil {
			return true, err
		}
		stakes = append(stakes, *stake)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return stakes, nil
}

func (k Keeper) setStake(ctx context.Context, stake types.StakeToken) error {
	raw, err := json.Marshal(stake)
	if err != nil {
		return err
	}
	if err := k.Stakes.Set(ctx, stake.ID, string(raw)); err != nil {
		return err
	}
	if err := k.OwnerIndex.Set(ctx, collections.Join(stake.Owner, stake.ID)); err != nil {
		return err
	}
	return k.PoolIndex.Set(ctx, collections.Join(stake.PoolID, stake.ID))
}

func (k Keeper) removeStake(ctx context.Context, stake types.StakeToken) error {
	if err := k.Stakes.Remove(ctx, stake.ID); err != nil {
		return err
	}
	if err := k.OwnerIndex.Remove(ctx, collections.Join(stake.Owner, stake.ID)); err != nil {
		return err
	}
	return k.PoolIndex.Remove(ctx, collections.Join(stake.PoolID, stake.ID))
}

func decodeStake(raw string) (types.StakeToken, error) {
	var stake types.StakeToken
	if err := json.Unmarshal([]byte(raw), &stake); err != nil {
		return types.StakeToken{}, fmt.Errorf("decode stake: %w", err)
	}
	return stake, nil
}

func coins(denom string, amount sdkmath.Int) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, amount))
}

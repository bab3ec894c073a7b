package keeper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cosmossdk.io/collections"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/firebond/firebond/x/forest/types"
)

// CreatePool opens a staking pool for a forest. The reward rate starts at the
// economics maximum and is recomputed on the first purchase.
func (k Keeper) CreatePool(ctx context.Context, msg types.MsgCreatePool) (*types.StakingPool, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, invalidMsg(err)
	}

	var pool types.StakingPool
	err := k.atomically(ctx, func(ctx context.Context) error {
		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		econ, err := k.GetEconomics(ctx)
		if err != nil {
			return err
		}

		epoch := currentEpoch(ctx, params)
		periodEnd := epoch + msg.PeriodLength
		if periodEnd < epoch {
			return errorsmod.Wrapf(types.ErrArithmetic, "period end overflows: %d + %d", epoch, msg.PeriodLength)
		}

		id, err := k.nextPoolID(ctx)
		if err != nil {
			return err
		}

		pool = types.StakingPool{
			ID:                id,
			ForestID:          strings.TrimSpace(msg.ForestID),
			TotalStaked:       sdkmath.ZeroInt(),
			CurrentRewardRate: econ.MaxRewardRate,
			PeriodEnd:         periodEnd,
			IsActive:          true,
			MinStakeAmount:    msg.MinStakeAmount,
			EarlyUnstakeFee:   params.EarlyUnstakeFee,
			OracleAddress:     msg.Creator,
			CreatedAtEpoch:    epoch,
		}
		if err := k.setPool(ctx, pool); err != nil {
			return err
		}

		emitEventIfPossible(ctx, sdk.NewEvent(
			types.EventTypePoolCreated,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.ID),
			sdk.NewAttribute(types.AttributeKeyForestID, pool.ForestID),
			sdk.NewAttribute(types.AttributeKeyOracle, pool.OracleAddress),
			sdk.NewAttribute(types.AttributeKeyPeriodEnd, strconv.FormatUint(pool.PeriodEnd, 10)),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	k.Logger(ctx).Info("staking pool created",
		"pool_id", pool.ID,
		"forest_id", pool.ForestID,
		"period_end", pool.PeriodEnd,
		"min_stake", pool.MinStakeAmount,
	)
	return &pool, nil
}

// RegisterForestFire deactivates a pool on the oracle's attestation.
//
// Only the pool's oracle may call it. The signature payload is hashed and
// recorded for audit but not verified. Deactivation is permanent and the
// pool's custody stays locked: no claim or early exit succeeds afterwards.
func (k Keeper) RegisterForestFire(ctx context.Context, msg types.MsgRegisterForestFire) (*types.StakingPool, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, invalidMsg(err)
	}

	var (
		pool        *types.StakingPool
		deactivated bool
	)
	err := k.atomically(ctx, func(ctx context.Context) error {
		var err error
		pool, err = k.GetPool(ctx, msg.PoolID)
		if err != nil {
			return err
		}
		if msg.Caller != pool.OracleAddress {
			return errorsmod.Wrapf(types.ErrUnauthorized, "%s is not the oracle for pool %s", msg.Caller, pool.ID)
		}
		if !pool.IsActive {
			// already burned down; the first attestation stays on record
			return nil
		}

		params, err := k.GetParams(ctx)
		if err != nil {
			return err
		}
		digest := sha256.Sum256(msg.Signature)

		pool.IsActive = false
		pool.FireRegisteredAtEpoch = currentEpoch(ctx, params)
		pool.FireAttestationHash = hex.EncodeToString(digest[:])
		if err := k.setPool(ctx, *pool); err != nil {
			return err
		}
		deactivated = true

		emitEventIfPossible(ctx, sdk.NewEvent(
			types.EventTypeForestFireRegistered,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.ID),
			sdk.NewAttribute(types.AttributeKeyForestID, pool.ForestID),
			sdk.NewAttribute(types.AttributeKeyOracle, pool.OracleAddress),
			sdk.NewAttribute(types.AttributeKeyAmount, pool.TotalStaked.String()),
			sdk.NewAttribute(types.AttributeKeyAttestation, pool.FireAttestationHash),
		))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !deactivated {
		return pool, nil
	}
	k.metrics.incFire()
	k.Logger(ctx).Info("forest fire registered; pool deactivated",
		"pool_id", pool.ID,
		"forest_id", pool.ForestID,
		"locked", pool.TotalStaked.String(),
	)
	return pool, nil
}

// GetPool loads a single pool.
func (k Keeper) GetPool(ctx context.Context, poolID string) (*types.StakingPool, error) {
	raw, err := k.Pools.Get(ctx, poolID)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, errorsmod.Wrapf(types.ErrPoolNotFound, "pool %s", poolID)
	}
	if err != nil {
		return nil, err
	}
	pool, err := decodePool(raw)
	if err != nil {
		return nil, err
	}
	return &pool, nil
}

// ListPools returns every pool in id order.
func (k Keeper) ListPools(ctx context.Context) ([]types.StakingPool, error) {
	var pools []types.StakingPool
	err := k.Pools.Walk(ctx, nil, func(_ string, raw string) (bool, error) {
		pool, err := decodePool(raw)
		if err != nil {
			return true, err
		}
		pools = append(pools, pool)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return pools, nil
}

func (k Keeper) setPool(ctx context.Context, pool types.StakingPool) error {
	raw, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return k.Pools.Set(ctx, pool.ID, string(raw))
}

func decodePool(raw string) (types.StakingPool, error) {
	var pool types.StakingPool
	if err := json.Unmarshal([]byte(raw), &pool); err != nil {
		return types.StakingPool{}, fmt.Errorf("decode pool: %w", err)
	}
	return pool, nil
}

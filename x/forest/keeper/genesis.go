package keeper

import (
	"context"
	"fmt"

	"github.com/firebond/firebond/x/forest/types"
)

// InitGenesis initializes the module's state from genesis. A genesis without
// an economics record initializes a fresh economics singleton from Params.
func (k Keeper) InitGenesis(ctx context.Context, gs *types.GenesisState) error {
	if gs == nil {
		gs = types.DefaultGenesis()
	}
	if err := gs.Validate(); err != nil {
		return fmt.Errorf("invalid forest genesis: %w", err)
	}

	if err := k.SetParams(ctx, gs.Params); err != nil {
		return err
	}

	if gs.Economics == nil {
		if _, err := k.InitializeEconomics(ctx); err != nil {
			return err
		}
	} else {
		if err := k.setEconomics(ctx, *gs.Economics); err != nil {
			return err
		}
		k.metrics.observeEconomics(*gs.Economics)
	}

	for _, pool := range gs.Pools {
		if err := k.setPool(ctx, pool); err != nil {
			return err
		}
	}
	for _, stake := range gs.Stakes {
		if err := k.setStake(ctx, stake); err != nil {
			return err
		}
	}

	if err := k.PoolCount.Set(ctx, gs.PoolCount); err != nil {
		return err
	}
	return k.StakeCount.Set(ctx, gs.StakeCount)
}

// ExportGenesis exports the module's state.
func (k Keeper) ExportGenesis(ctx context.Context) (*types.GenesisState, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}

	gs := &types.GenesisState{
		Params: params,
		Pools:  []types.StakingPool{},
		Stakes: []types.StakeToken{},
	}

	has, err := k.Economics.Has(ctx)
	if err != nil {
		return nil, err
	}
	if has {
		if gs.Economics, err = k.GetEconomics(ctx); err != nil {
			return nil, err
		}
	}

	pools, err := k.ListPools(ctx)
	if err != nil {
		return nil, err
	}
	gs.Pools = append(gs.Pools, pools...)

	stakes, err := k.ListStakes(ctx)
	if err != nil {
		return nil, err
	}
	gs.Stakes = append(gs.Stakes, stakes...)

	if gs.PoolCount, err = k.PoolCount.Get(ctx); err != nil {
		gs.PoolCount = uint64(len(pools))
	}
	if gs.StakeCount, err = k.StakeCount.Get(ctx); err != nil {
		gs.StakeCount = uint64(len(stakes))
	}
	return gs, nil
}

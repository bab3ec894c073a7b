package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"

	"github.com/firebond/firebond/x/forest/types"
)

// InitializeEconomics creates the token economics singleton from the current
// params. It must run exactly once per chain; InitGenesis is the only caller
// in a running application.
func (k Keeper) InitializeEconomics(ctx context.Context) (*types.TokenEconomics, error) {
	exists, err := k.Economics.Has(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, types.ErrEconomicsAlreadyInitialized
	}

	params, err := k.GetParams(ctx)
	if err != nil {
		return nil, err
	}
	econ := types.NewTokenEconomics(params)
	if err := k.setEconomics(ctx, econ); err != nil {
		return nil, err
	}
	k.metrics.observeEconomics(econ)
	return &econ, nil
}

// GetEconomics loads the token economics singleton.
func (k Keeper) GetEconomics(ctx context.Context) (*types.TokenEconomics, error) {
	raw, err := k.Economics.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return nil, types.ErrEconomicsNotInitialized
	}
	if err != nil {
		return nil, err
	}
	econ, err := decodeEconomics(raw)
	if err != nil {
		return nil, err
	}
	return &econ, nil
}

// CurrentPrice returns the bonding-curve price at the current supply.
func (k Keeper) CurrentPrice(ctx context.Context) (sdkmath.Int, error) {
	econ, err := k.GetEconomics(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return econ.CalculateCurrentPrice()
}

// RewardRate returns the reward rate derived from the current supply.
func (k Keeper) RewardRate(ctx context.Context) (uint64, error) {
	econ, err := k.GetEconomics(ctx)
	if err != nil {
		return 0, err
	}
	return econ.CalculateRewardRate()
}

func (k Keeper) setEconomics(ctx context.Context, econ types.TokenEconomics) error {
	if err := econ.Validate(); err != nil {
		return fmt.Errorf("invalid economics: %w", err)
	}
	raw, err := json.Marshal(econ)
	if err != nil {
		return err
	}
	return k.Economics.Set(ctx, string(raw))
}

func decodeEconomics(raw string) (types.TokenEconomics, error) {
	var econ types.TokenEconomics
	if err := json.Unmarshal([]byte(raw), &econ); err != nil {
		return types.TokenEconomics{}, fmt.Errorf("decode economics: %w", err)
	}
	return econ, nil
}

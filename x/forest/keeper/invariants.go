package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/firebond/firebond/x/forest/types"
)

// RegisterInvariants registers all module invariants with the invariant registry.
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "custody-solvency", CustodySolvencyInvariant(k))
	ir.RegisterRoute(types.ModuleName, "treasury-balance", TreasuryBalanceInvariant(k))
	ir.RegisterRoute(types.ModuleName, "pool-state", PoolStateInvariant(k))
	ir.RegisterRoute(types.ModuleName, "stake-references", StakeReferenceInvariant(k))
}

// AllInvariants runs all invariants of the forest module.
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		for _, inv := range k.invariants() {
			if msg, broken := inv(ctx); broken {
				return msg, broken
			}
		}
		return "", false
	}
}

// CheckInvariants runs every invariant and returns the messages of those that
// are broken. An empty result means the module state is consistent.
func (k Keeper) CheckInvariants(ctx context.Context) []string {
	sdkCtx, ok := unwrapSDKContext(ctx)
	if !ok {
		return []string{"invariants require an sdk context"}
	}
	var broken []string
	for _, inv := range k.invariants() {
		if msg, isBroken := inv(sdkCtx); isBroken {
			broken = append(broken, msg)
		}
	}
	return broken
}

func (k Keeper) invariants() []sdk.Invariant {
	return []sdk.Invariant{
		CustodySolvencyInvariant(k),
		TreasuryBalanceInvariant(k),
		PoolStateInvariant(k),
		StakeReferenceInvariant(k),
	}
}

// CustodySolvencyInvariant checks that the module account holds at least the
// sum of every pool's total_staked, active or not.
func CustodySolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		params, err := k.GetParams(ctx)
		if err != nil {
			return invariantMsg("custody-solvency", "params: %v", err), true
		}
		pools, err := k.ListPools(ctx)
		if err != nil {
			return invariantMsg("custody-solvency", "pools: %v", err), true
		}

		total := sdkmath.ZeroInt()
		for _, pool := range pools {
			total = total.Add(pool.TotalStaked)
		}
		balance := k.bankKeeper.GetBalance(ctx, authtypes.NewModuleAddress(types.ModuleName), params.Denom)
		if balance.Amount.LT(total) {
			return invariantMsg("custody-solvency", "module balance %s below pooled custody %s", balance.Amount, total), true
		}
		return "", false
	}
}

// TreasuryBalanceInvariant checks that the treasury module account holds
// exactly the fees recorded in the economics singleton.
func TreasuryBalanceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		has, err := k.Economics.Has(ctx)
		if err != nil {
			return invariantMsg("treasury-balance", "economics: %v", err), true
		}
		if !has {
			return "", false
		}
		econ, err := k.GetEconomics(ctx)
		if err != nil {
			return invariantMsg("treasury-balance", "economics: %v", err), true
		}
		params, err := k.GetParams(ctx)
		if err != nil {
			return invariantMsg("treasury-balance", "params: %v", err), true
		}
		balance := k.bankKeeper.GetBalance(ctx, authtypes.NewModuleAddress(types.TreasuryModuleName), params.Denom)
		if !balance.Amount.Equal(econ.Treasury) {
			return invariantMsg("treasury-balance", "treasury account %s != recorded %s", balance.Amount, econ.Treasury), true
		}
		return "", false
	}
}

// PoolStateInvariant checks that every stored pool is well formed and that the
// pool counter covers every pool.
func PoolStateInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pools, err := k.ListPools(ctx)
		if err != nil {
			return invariantMsg("pool-state", "pools: %v", err), true
		}
		var msg string
		broken := false
		for _, pool := range pools {
			if err := pool.Validate(); err != nil {
				msg += fmt.Sprintf("%v\n", err)
				broken = true
			}
			if !pool.IsActive && pool.FireAttestationHash == "" {
				msg += fmt.Sprintf("inactive pool %s has no fire attestation\n", pool.ID)
				broken = true
			}
		}
		count, err := k.PoolCount.Get(ctx)
		if err != nil {
			count = 0
		}
		if count < uint64(len(pools)) {
			msg += fmt.Sprintf("pool count %d below stored pools %d\n", count, len(pools))
			broken = true
		}
		if broken {
			return invariantMsg("pool-state", "%s", msg), true
		}
		return "", false
	}
}

// StakeReferenceInvariant checks that every live stake references an existing
// pool and is present in both the owner and pool indexes.
func StakeReferenceInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		stakes, err := k.ListStakes(ctx)
		if err != nil {
			return invariantMsg("stake-references", "stakes: %v", err), true
		}
		var msg string
		broken := false
		for _, stake := range stakes {
			if err := stake.Validate(); err != nil {
				msg += fmt.Sprintf("%v\n", err)
				broken = true
			}
			if has, err := k.Pools.Has(ctx, stake.PoolID); err != nil || !has {
				msg += fmt.Sprintf("stake %s references missing pool %s\n", stake.ID, stake.PoolID)
				broken = true
			}
			if has, err := k.OwnerIndex.Has(ctx, collections.Join(stake.Owner, stake.ID)); err != nil || !has {
				msg += fmt.Sprintf("stake %s missing from owner index\n", stake.ID)
				broken = true
			}
			if has, err := k.PoolIndex.Has(ctx, collections.Join(stake.PoolID, stake.ID)); err != nil || !has {
				msg += fmt.Sprintf("stake %s missing from pool index\n", stake.ID)
				broken = true
			}
		}
		if broken {
			return invariantMsg("stake-references", "%s", msg), true
		}
		return "", false
	}
}

func invariantMsg(route, format string, args ...any) string {
	return sdk.FormatInvariant(types.ModuleName, route, fmt.Sprintf(format, args...))
}

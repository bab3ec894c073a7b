package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/firebond/firebond/x/forest/types"
)

// BankKeeper defines the bank operations the forest module needs for custody
// of payments, treasury fees and payouts.
type BankKeeper interface {
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error
	BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
}

// Keeper manages token economics, staking pools and stake tokens.
type Keeper struct {
	storeService store.KVStoreService
	bankKeeper   BankKeeper

	metrics *Metrics

	Params     collections.Item[string]
	Economics  collections.Item[string]
	Pools      collections.Map[string, string]
	Stakes     collections.Map[string, string]
	OwnerIndex collections.KeySet[collections.Pair[string, string]]
	PoolIndex  collections.KeySet[collections.Pair[string, string]]
	PoolCount  collections.Item[uint64]
	StakeCount collections.Item[uint64]
}

// NewKeeper creates a new forest keeper.
func NewKeeper(
	storeService store.KVStoreService,
	bankKeeper BankKeeper,
) Keeper {
	sb := collections.NewSchemaBuilder(storeService)

	return Keeper{
		storeService: storeService,
		bankKeeper:   bankKeeper,
		Params: collections.NewItem(
			sb,
			collections.NewPrefix(types.ParamsKey),
			"params",
			collections.StringValue,
		),
		Economics: collections.NewItem(
			sb,
			collections.NewPrefix(types.EconomicsKey),
			"economics",
			collections.StringValue,
		),
		Pools: collections.NewMap(
			sb,
			collections.NewPrefix(types.PoolKeyPrefix),
			"pools",
			collections.StringKey,
			collections.StringValue,
		),
		Stakes: collections.NewMap(
			sb,
			collections.NewPrefix(types.StakeKeyPrefix),
			"stakes",
			collections.StringKey,
			collections.StringValue,
		),
		OwnerIndex: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.StakesByOwnerKeyPrefix),
			"stakes_by_owner",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
		),
		PoolIndex: collections.NewKeySet(
			sb,
			collections.NewPrefix(types.StakesByPoolKeyPrefix),
			"stakes_by_pool",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
		),
		PoolCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.PoolCountKey),
			"pool_count",
			collections.Uint64Value,
		),
		StakeCount: collections.NewItem(
			sb,
			collections.NewPrefix(types.StakeCountKey),
			"stake_count",
			collections.Uint64Value,
		),
	}
}

// SetMetrics wires optional Prometheus collectors.
func (k *Keeper) SetMetrics(metrics *Metrics) {
	k.metrics = metrics
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger(ctx context.Context) log.Logger {
	if sdkCtx, ok := unwrapSDKContext(ctx); ok && sdkCtx.Logger() != nil {
		return sdkCtx.Logger().With("module", "x/"+types.ModuleName)
	}
	return log.NewNopLogger()
}

// GetParams returns the module params, falling back to defaults before genesis.
func (k Keeper) GetParams(ctx context.Context) (types.Params, error) {
	raw, err := k.Params.Get(ctx)
	if errors.Is(err, collections.ErrNotFound) {
		return types.DefaultParams(), nil
	}
	if err != nil {
		return types.Params{}, err
	}
	var params types.Params
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return types.Params{}, fmt.Errorf("decode params: %w", err)
	}
	return params, nil
}

// SetParams validates and stores params.
func (k Keeper) SetParams(ctx context.Context, params types.Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %s", types.ErrInvalidParams, err)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return k.Params.Set(ctx, string(raw))
}

// CurrentEpoch returns the epoch counter derived from block height.
func (k Keeper) CurrentEpoch(ctx context.Context) (uint64, error) {
	params, err := k.GetParams(ctx)
	if err != nil {
		return 0, err
	}
	return currentEpoch(ctx, params), nil
}

func currentEpoch(ctx context.Context, params types.Params) uint64 {
	sdkCtx, ok := unwrapSDKContext(ctx)
	if !ok || sdkCtx.BlockHeight() <= 0 {
		return 0
	}
	return uint64(sdkCtx.BlockHeight()) / params.BlocksPerEpoch
}

// atomically runs fn against a cached branch of the store and commits it only
// when fn succeeds, so a failed operation leaves no partial state behind.
// State-changing operations require an sdk.Context to branch from.
func (k Keeper) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	sdkCtx, ok := unwrapSDKContext(ctx)
	if !ok {
		return errorsmod.Wrap(types.ErrInvalidRequest, "state transitions require an sdk.Context")
	}
	cacheCtx, write := sdkCtx.CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// invalidMsg keeps a ValidateBasic failure that already carries a registered
// module error and files anything else under ErrInvalidRequest.
func invalidMsg(err error) error {
	var coded *errorsmod.Error
	if errors.As(err, &coded) {
		return err
	}
	return errorsmod.Wrap(types.ErrInvalidRequest, err.Error())
}

func (k Keeper) nextPoolID(ctx context.Context) (string, error) {
	count, err := k.PoolCount.Get(ctx)
	if err != nil {
		count = 0
	}
	count++
	if err := k.PoolCount.Set(ctx, count); err != nil {
		return "", err
	}
	return fmt.Sprintf("pool-%d", count), nil
}

func (k Keeper) nextStakeID(ctx context.Context) (string, error) {
	count, err := k.StakeCount.Get(ctx)
	if err != nil {
		count = 0
	}
	count++
	if err := k.StakeCount.Set(ctx, count); err != nil {
		return "", err
	}
	return fmt.Sprintf("stake-%d", count), nil
}

func unwrapSDKContext(ctx context.Context) (sdk.Context, bool) {
	if ctx == nil {
		return sdk.Context{}, false
	}
	if sdkCtx, ok := ctx.(sdk.Context); ok {
		return sdkCtx, true
	}
	if val := ctx.Value(sdk.SdkContextKey); val != nil {
		if sdkCtx, ok := val.(sdk.Context); ok {
			return sdkCtx, true
		}
	}
	return sdk.Context{}, false
}

func emitEventIfPossible(ctx context.Context, event sdk.Event) {
	sdkCtx, ok := unwrapSDKContext(ctx)
	if !ok {
		return
	}
	if em := sdkCtx.EventManager(); em != nil {
		em.EmitEvent(event)
	}
}

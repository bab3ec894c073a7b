package keeper_test

import (
	"context"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdkmath "cosmossdk.io/math"
	storemetrics "cosmossdk.io/store/metrics"
	"cosmossdk.io/store/rootmulti"
	storetypes "cosmossdk.io/store/types"
	tmproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/runtime"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/firebond/firebond/x/forest/keeper"
	"github.com/firebond/firebond/x/forest/simulation"
	"github.com/firebond/firebond/x/forest/types"
)

const denom = types.DefaultDenom

type fixture struct {
	ctx  sdk.Context
	k    keeper.Keeper
	bank *simulation.Bank
}

func setupRawKeeper(t *testing.T) *fixture {
	t.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey("bank")
	db := dbm.NewMemDB()
	cms := rootmulti.NewStore(db, log.NewNopLogger(), storemetrics.NoOpMetrics{})
	cms.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, nil)
	require.NoError(t, cms.LoadLatestVersion())

	header := tmproto.Header{
		ChainID: "firebond-test-1",
		Height:  1,
		Time:    time.Unix(1_770_000_000, 0).UTC(),
	}
	ctx := sdk.NewContext(cms, header, false, log.NewNopLogger())

	bank := simulation.NewBank(runtime.NewKVStoreService(bankKey))
	k := keeper.NewKeeper(runtime.NewKVStoreService(storeKey), bank)

	return &fixture{ctx: ctx, k: k, bank: bank}
}

func setupKeeper(t *testing.T) *fixture {
	t.Helper()

	f := setupRawKeeper(t)
	require.NoError(t, f.k.InitGenesis(f.ctx, types.DefaultGenesis()))
	return f
}

func addr(name string) sdk.AccAddress {
	return simulation.AccountAddress(name)
}

func (f *fixture) fund(t *testing.T, name string, amount int64) sdk.AccAddress {
	t.Helper()
	a := addr(name)
	require.NoError(t, f.bank.Mint(f.ctx, a, sdk.NewCoins(sdk.NewCoin(denom, sdkmath.NewInt(amount)))))
	return a
}

func (f *fixture) balance(name string) sdkmath.Int {
	return f.bank.GetBalance(f.ctx, addr(name), denom).Amount
}

func (f *fixture) moduleBalance(module string) sdkmath.Int {
	return f.bank.GetBalance(f.ctx, simulation.ModuleAddress(module), denom).Amount
}

func (f *fixture) createPool(t *testing.T, oracle string, period, minStake uint64) *types.StakingPool {
	t.Helper()
	pool, err := f.k.CreatePool(f.ctx, types.MsgCreatePool{
		Creator:        addr(oracle).String(),
		ForestID:       "amazon-7",
		PeriodLength:   period,
		MinStakeAmount: minStake,
	})
	require.NoError(t, err)
	return pool
}

func (f *fixture) buy(t *testing.T, buyer, poolID string, amount uint64) *types.StakeToken {
	t.Helper()
	price, err := f.k.CurrentPrice(f.ctx)
	require.NoError(t, err)
	stake, err := f.k.BuyAndStake(f.ctx, types.MsgBuyAndStake{
		Buyer:   addr(buyer).String(),
		PoolID:  poolID,
		Payment: sdk.NewCoin(denom, price.Mul(sdkmath.NewIntFromUint64(amount))),
		Amount:  amount,
	})
	require.NoError(t, err)
	return stake
}

func (f *fixture) advanceTo(height int64) {
	f.ctx = f.ctx.WithBlockHeight(height)
}

func findEvent(events sdk.Events, eventType string) (map[string]string, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != eventType {
			continue
		}
		attrs := make(map[string]string, len(events[i].Attributes))
		for _, attr := range events[i].Attributes {
			attrs[attr.Key] = attr.Value
		}
		return attrs, true
	}
	return nil, false
}

func TestInitGenesisInitializesEconomics(t *testing.T) {
	f := setupKeeper(t)

	econ, err := f.k.GetEconomics(f.ctx)
	require.NoError(t, err)
	require.True(t, econ.TotalSupply.IsZero())
	require.True(t, econ.Treasury.IsZero())
	require.EqualValues(t, 1_000_000, econ.BasePrice.Int64())
	require.EqualValues(t, 100, econ.PriceMultiplier.Int64())
	require.EqualValues(t, 5000, econ.MaxRewardRate)
	require.EqualValues(t, 1000, econ.MinRewardRate)

	price, err := f.k.CurrentPrice(f.ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1_000_000, price.Int64())

	rate, err := f.k.RewardRate(f.ctx)
	require.NoError(t, err)
	require.EqualValues(t, 5000, rate)
}

func TestInitializeEconomicsOnlyOnce(t *testing.T) {
	f := setupRawKeeper(t)

	_, err := f.k.GetEconomics(f.ctx)
	require.ErrorIs(t, err, types.ErrEconomicsNotInitialized)

	_, err = f.k.InitializeEconomics(f.ctx)
	require.NoError(t, err)

	_, err = f.k.InitializeEconomics(f.ctx)
	require.ErrorIs(t, err, types.ErrEconomicsAlreadyInitialized)
}

func TestCreatePoolRequiresEconomics(t *testing.T) {
	f := setupRawKeeper(t)

	_, err := f.k.CreatePool(f.ctx, types.MsgCreatePool{
		Creator:        addr("ranger").String(),
		ForestID:       "amazon-7",
		PeriodLength:   10,
		MinStakeAmount: 100,
	})
	require.ErrorIs(t, err, types.ErrEconomicsNotInitialized)

	pools, err := f.k.ListPools(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pools)
}

func TestParamsDefaultAndValidation(t *testing.T) {
	f := setupRawKeeper(t)

	params, err := f.k.GetParams(f.ctx)
	require.NoError(t, err)
	require.Equal(t, types.DefaultParams(), params)

	params.BlocksPerEpoch = 0
	require.ErrorIs(t, f.k.SetParams(f.ctx, params), types.ErrInvalidParams)

	params.BlocksPerEpoch = 5
	require.NoError(t, f.k.SetParams(f.ctx, params))

	f.advanceTo(23)
	epoch, err := f.k.CurrentEpoch(f.ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, epoch)
}

func TestCreatePoolInitialState(t *testing.T) {
	f := setupKeeper(t)

	pool := f.createPool(t, "ranger", 10, 100)
	require.Equal(t, "pool-1", pool.ID)
	require.Equal(t, "amazon-7", pool.ForestID)
	require.True(t, pool.TotalStaked.IsZero())
	require.EqualValues(t, 5000, pool.CurrentRewardRate)
	require.EqualValues(t, 11, pool.PeriodEnd)
	require.True(t, pool.IsActive)
	require.EqualValues(t, 100, pool.MinStakeAmount)
	require.EqualValues(t, 1000, pool.EarlyUnstakeFee)
	require.Equal(t, addr("ranger").String(), pool.OracleAddress)

	stored, err := f.k.GetPool(f.ctx, pool.ID)
	require.NoError(t, err)
	require.Equal(t, pool.ID, stored.ID)
	require.Equal(t, pool.OracleAddress, stored.OracleAddress)
	require.Equal(t, pool.PeriodEnd, stored.PeriodEnd)
	require.True(t, stored.TotalStaked.IsZero())

	attrs, ok := findEvent(f.ctx.EventManager().Events(), types.EventTypePoolCreated)
	require.True(t, ok)
	require.Equal(t, pool.ID, attrs[types.AttributeKeyPoolID])
	require.Equal(t, "11", attrs[types.AttributeKeyPeriodEnd])

	second := f.createPool(t, "ranger", 3, 1)
	require.Equal(t, "pool-2", second.ID)

	_, err = f.k.GetPool(f.ctx, "pool-9")
	require.ErrorIs(t, err, types.ErrPoolNotFound)
}

func TestCreatePoolRejectsInvalidMsg(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.k.CreatePool(f.ctx, types.MsgCreatePool{Creator: "not-bech32", ForestID: "amazon-7"})
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	_, err = f.k.CreatePool(f.ctx, types.MsgCreatePool{Creator: addr("ranger").String()})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestMalformedCallerIsUnauthorized(t *testing.T) {
	f := setupKeeper(t)
	pool := f.createPool(t, "ranger", 10, 100)

	_, err := f.k.ClaimRewards(f.ctx, types.MsgClaimRewards{Caller: "not-bech32", StakeID: "stake-1"})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.k.EarlyUnstake(f.ctx, types.MsgEarlyUnstake{Caller: "not-bech32", StakeID: "stake-1"})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = f.k.RegisterForestFire(f.ctx, types.MsgRegisterForestFire{Caller: "not-bech32", PoolID: pool.ID})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	// a missing stake id is still a malformed request
	_, err = f.k.ClaimRewards(f.ctx, types.MsgClaimRewards{Caller: addr("alice").String()})
	require.ErrorIs(t, err, types.ErrInvalidRequest)
}

func TestStateTransitionsRequireSDKContext(t *testing.T) {
	f := setupKeeper(t)

	_, err := f.k.CreatePool(context.Background(), types.MsgCreatePool{
		Creator:  addr("ranger").String(),
		ForestID: "amazon-7",
	})
	require.ErrorIs(t, err, types.ErrInvalidRequest)

	pools, err := f.k.ListPools(f.ctx)
	require.NoError(t, err)
	require.Empty(t, pools)
}

func TestRegisterForestFireByNonOracleFails(t *testing.T) {
	f := setupKeeper(t)
	pool := f.createPool(t, "ranger", 10, 100)

	_, err := f.k.RegisterForestFire(f.ctx, types.MsgRegisterForestFire{
		Caller:    addr("mallory").String(),
		PoolID:    pool.ID,
		Signature: []byte("forged"),
	})
	require.ErrorIs(t, err, types.ErrUnauthorized)

	stored, err := f.k.GetPool(f.ctx, pool.ID)
	require.NoError(t, err)
	require.True(t, stored.IsActive)
	require.Empty(t, stored.FireAttestationHash)
}

func TestRegisterForestFireDeactivatesPool(t *testing.T) {
	f := setupKeeper(t)
	pool := f.createPool(t, "ranger", 10, 100)
	f.fund(t, "alice", 1_000_000_000)
	stake := f.buy(t, "alice", pool.ID, 500)

	f.advanceTo(4)
	burned, err := f.k.RegisterForestFire(f.ctx, types.MsgRegisterForestFire{
		Caller:    addr("ranger").String(),
		PoolID:    pool.ID,
		Signature: []byte("sat-imagery-2025-01-01"),
	})
	require.NoError(t, err)
	require.False(t, burned.IsActive)
	require.EqualValues(t, 4, burned.FireRegisteredAtEpoch)
	require.Len(t, burned.FireAttestationHash, 64)

	attrs, ok := findEvent(f.ctx.EventManager().Events(), types.EventTypeForestFireRegistered)
	require.True(t, ok)
	require.Equal(t, burned.FireAttestationHash, attrs[types.AttributeKeyAttestation])

	// funds stay locked in custody
	require.EqualValues(t, 450_000_000, burned.TotalStaked.Int64())
	require.EqualValues(t, 450_000_000, f.moduleBalance(types.ModuleName).Int64())

	f.advanceTo(20)
	_, err = f.k.ClaimRewards(f.ctx, types.MsgClaimRewards{Caller: addr("alice").String(), StakeID: stake.ID})
	require.ErrorIs(t, err, types.ErrPoolInactive)

	_, err = f.k.EarlyUnstake(f.ctx, types.MsgEarlyUnstake{Caller: addr("alice").String(), StakeID: stake.ID})
	require.ErrorIs(t, err, types.ErrPoolInactive)

	f.fund(t, "bob", 1_000_000_000)
	_, err = f.k.BuyAndStake(f.ctx, types.MsgBuyAndStake{
		Buyer:   addr("bob").String(),
		PoolID:  pool.ID,
		Payment: sdk.NewCoin(denom, sdkmath.NewInt(1_000_000_000)),
		Amount:  100,
	})
	require.ErrorIs(t, err, types.ErrPoolInactive)
	require.EqualValues(t, 1_000_000_000, f.balance("bob").Int64())

	// a second attestation keeps the first on record
	again, err := f.k.RegisterForestFire(f.ctx, types.MsgRegisterForestFire{
		Caller:    addr("ranger").String(),
		PoolID:    pool.ID,
		Signature: []byte("another"),
	})
	require.NoError(t, err)
	require.False(t, again.IsActive)
	require.Equal(t, burned.FireAttestationHash, again.FireAttestationHash)
	require.EqualValues(t, 4, again.FireRegisteredAtEpoch)

	_, err = f.k.RegisterForestFire(f.ctx, types.MsgRegisterForestFire{
		Caller: addr("ranger").String(),
		PoolID: "pool-404",
	})
	require.ErrorIs(t, err, types.ErrPoolNotFound)

	require.Empty(t, f.k.CheckInvariants(f.ctx))
}

package simulation

import (
	"context"
	"errors"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	errorsmod "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/firebond/firebond/x/forest/keeper"
)

var (
	balancesPrefix = collections.NewPrefix(0x01)
	supplyPrefix   = collections.NewPrefix(0x02)
)

var _ keeper.BankKeeper = (*Bank)(nil)

// Bank is a minimal bank ledger backed by its own KV store. Module accounts
// are addressed the same way x/auth derives them, so the forest keeper's
// module names resolve to stable addresses.
type Bank struct {
	Balances collections.Map[collections.Pair[sdk.AccAddress, string], sdkmath.Int]
	Supply   collections.Map[string, sdkmath.Int]
}

// NewBank creates a bank ledger over storeService.
func NewBank(storeService store.KVStoreService) *Bank {
	sb := collections.NewSchemaBuilder(storeService)
	return &Bank{
		Balances: collections.NewMap(
			sb,
			balancesPrefix,
			"balances",
			collections.PairKeyCodec(sdk.AccAddressKey, collections.StringKey),
			sdk.IntValue,
		),
		Supply: collections.NewMap(
			sb,
			supplyPrefix,
			"supply",
			collections.StringKey,
			sdk.IntValue,
		),
	}
}

// ModuleAddress returns the account address of a module account.
func ModuleAddress(moduleName string) sdk.AccAddress {
	return authtypes.NewModuleAddress(moduleName)
}

// Mint credits new coins to addr and grows the tracked supply.
func (b *Bank) Mint(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "mint %s", amt)
	}
	for _, coin := range amt {
		if err := b.addBalance(ctx, addr, coin); err != nil {
			return err
		}
		supply, err := b.SupplyOf(ctx, coin.Denom)
		if err != nil {
			return err
		}
		if err := b.Supply.Set(ctx, coin.Denom, supply.Add(coin.Amount)); err != nil {
			return err
		}
	}
	return nil
}

// SupplyOf returns the tracked supply of denom.
func (b *Bank) SupplyOf(ctx context.Context, denom string) (sdkmath.Int, error) {
	supply, err := b.Supply.Get(ctx, denom)
	if errors.Is(err, collections.ErrNotFound) {
		return sdkmath.ZeroInt(), nil
	}
	return supply, err
}

func (b *Bank) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return b.send(ctx, senderAddr, ModuleAddress(recipientModule), amt)
}

func (b *Bank) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return b.send(ctx, ModuleAddress(senderModule), recipientAddr, amt)
}

func (b *Bank) SendCoinsFromModuleToModule(ctx context.Context, senderModule, recipientModule string, amt sdk.Coins) error {
	return b.send(ctx, ModuleAddress(senderModule), ModuleAddress(recipientModule), amt)
}

// BurnCoins removes coins from a module account and from the tracked supply.
func (b *Bank) BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "burn %s", amt)
	}
	addr := ModuleAddress(moduleName)
	for _, coin := range amt {
		if err := b.subBalance(ctx, addr, coin); err != nil {
			return err
		}
		supply, err := b.SupplyOf(ctx, coin.Denom)
		if err != nil {
			return err
		}
		if supply.LT(coin.Amount) {
			return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "burn %s exceeds supply %s", coin, supply)
		}
		if err := b.Supply.Set(ctx, coin.Denom, supply.Sub(coin.Amount)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bank) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	amount, err := b.Balances.Get(ctx, collections.Join(addr, denom))
	if err != nil {
		return sdk.NewCoin(denom, sdkmath.ZeroInt())
	}
	return sdk.NewCoin(denom, amount)
}

func (b *Bank) send(ctx context.Context, from, to sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errorsmod.Wrapf(sdkerrors.ErrInvalidCoins, "send %s", amt)
	}
	for _, coin := range amt {
		if err := b.subBalance(ctx, from, coin); err != nil {
			return err
		}
		if err := b.addBalance(ctx, to, coin); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bank) addBalance(ctx context.Context, addr sdk.AccAddress, coin sdk.Coin) error {
	balance := b.GetBalance(ctx, addr, coin.Denom)
	return b.Balances.Set(ctx, collections.Join(addr, coin.Denom), balance.Amount.Add(coin.Amount))
}

func (b *Bank) subBalance(ctx context.Context, addr sdk.AccAddress, coin sdk.Coin) error {
	balance := b.GetBalance(ctx, addr, coin.Denom)
	if balance.Amount.LT(coin.Amount) {
		return errorsmod.Wrapf(sdkerrors.ErrInsufficientFunds, "%s is smaller than %s", balance, coin)
	}
	remaining := balance.Amount.Sub(coin.Amount)
	if remaining.IsZero() {
		return b.Balances.Remove(ctx, collections.Join(addr, coin.Denom))
	}
	return b.Balances.Set(ctx, collections.Join(addr, coin.Denom), remaining)
}

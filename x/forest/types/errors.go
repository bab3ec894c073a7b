package types

import errorsmod "cosmossdk.io/errors"

// x/forest module sentinel errors
var (
	ErrInsufficientAmount          = errorsmod.Register(ModuleName, 2, "insufficient amount")
	ErrPoolInactive                = errorsmod.Register(ModuleName, 3, "pool inactive")
	ErrUnauthorized                = errorsmod.Register(ModuleName, 4, "unauthorized")
	ErrPeriodNotEnded              = errorsmod.Register(ModuleName, 5, "staking period not ended")
	ErrArithmetic                  = errorsmod.Register(ModuleName, 6, "arithmetic overflow or underflow")
	ErrPoolUndercollateralized     = errorsmod.Register(ModuleName, 7, "pool custody cannot cover payout")
	ErrPoolNotFound                = errorsmod.Register(ModuleName, 8, "pool not found")
	ErrStakeNotFound               = errorsmod.Register(ModuleName, 9, "stake token not found")
	ErrEconomicsNotInitialized     = errorsmod.Register(ModuleName, 10, "token economics not initialized")
	ErrEconomicsAlreadyInitialized = errorsmod.Register(ModuleName, 11, "token economics already initialized")
	ErrInvalidParams               = errorsmod.Register(ModuleName, 12, "invalid params")
	ErrInvalidRequest              = errorsmod.Register(ModuleName, 13, "invalid request")
)

package types

import (
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgCreatePool opens a staking pool for a forest. The creator becomes the
// pool's oracle.
type MsgCreatePool struct {
	Creator        string `json:"creator" yaml:"creator"`
	ForestID       string `json:"forest_id" yaml:"forest_id"`
	PeriodLength   uint64 `json:"period_length" yaml:"period_length"`
	MinStakeAmount uint64 `json:"min_stake_amount" yaml:"min_stake_amount"`
}

func (m MsgCreatePool) ValidateBasic() error {
	if err := validateAddress("creator", m.Creator); err != nil {
		return err
	}
	if strings.TrimSpace(m.ForestID) == "" {
		return fmt.Errorf("forest id cannot be empty")
	}
	return nil
}

// MsgBuyAndStake buys Amount tokens on the bonding curve and stakes them into
// PoolID. Payment is the most the buyer is willing to spend; only the priced
// cost is debited.
type MsgBuyAndStake struct {
	Buyer   string   `json:"buyer" yaml:"buyer"`
	PoolID  string   `json:"pool_id" yaml:"pool_id"`
	Payment sdk.Coin `json:"payment" yaml:"payment"`
	Amount  uint64   `json:"amount" yaml:"amount"`
}

func (m MsgBuyAndStake) ValidateBasic() error {
	if err := validateAddress("buyer", m.Buyer); err != nil {
		return err
	}
	if strings.TrimSpace(m.PoolID) == "" {
		return fmt.Errorf("pool id cannot be empty")
	}
	if !m.Payment.IsValid() {
		return errorsmod.Wrapf(ErrInsufficientAmount, "invalid payment coin %s", m.Payment)
	}
	if m.Amount == 0 {
		return errorsmod.Wrap(ErrInsufficientAmount, "amount must be positive")
	}
	return nil
}

// MsgClaimRewards redeems a stake token for principal plus reward.
type MsgClaimRewards struct {
	Caller  string `json:"caller" yaml:"caller"`
	StakeID string `json:"stake_id" yaml:"stake_id"`
}

func (m MsgClaimRewards) ValidateBasic() error {
	if err := validateAddress("caller", m.Caller); err != nil {
		return errorsmod.Wrap(ErrUnauthorized, err.Error())
	}
	if strings.TrimSpace(m.StakeID) == "" {
		return fmt.Errorf("stake id cannot be empty")
	}
	return nil
}

// MsgEarlyUnstake redeems a stake token before the period ends, minus the
// pool's early-unstake fee.
type MsgEarlyUnstake struct {
	Caller  string `json:"caller" yaml:"caller"`
	StakeID string `json:"stake_id" yaml:"stake_id"`
}

func (m MsgEarlyUnstake) ValidateBasic() error {
	if err := validateAddress("caller", m.Caller); err != nil {
		return errorsmod.Wrap(ErrUnauthorized, err.Error())
	}
	if strings.TrimSpace(m.StakeID) == "" {
		return fmt.Errorf("stake id cannot be empty")
	}
	return nil
}

// MsgRegisterForestFire is the oracle's fire attestation for a pool.
//
// Signature is recorded but not cryptographically verified; the oracle's
// identity check is the only authorization.
type MsgRegisterForestFire struct {
	Caller    string `json:"caller" yaml:"caller"`
	PoolID    string `json:"pool_id" yaml:"pool_id"`
	Signature []byte `json:"signature" yaml:"signature"`
}

func (m MsgRegisterForestFire) ValidateBasic() error {
	if err := validateAddress("caller", m.Caller); err != nil {
		return errorsmod.Wrap(ErrUnauthorized, err.Error())
	}
	if strings.TrimSpace(m.PoolID) == "" {
		return fmt.Errorf("pool id cannot be empty")
	}
	return nil
}

func validateAddress(field, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%s address cannot be empty", field)
	}
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return fmt.Errorf("invalid %s address: %w", field, err)
	}
	return nil
}

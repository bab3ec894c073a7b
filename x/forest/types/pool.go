package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// StakingPool is the staking vault covering a single forest.
//
// A pool starts active and becomes permanently inactive once its oracle
// registers a fire. Funds held by an inactive pool stay in custody and cannot
// be claimed or withdrawn.
type StakingPool struct {
	ID                string      `json:"id"`
	ForestID          string      `json:"forest_id"`
	TotalStaked       sdkmath.Int `json:"total_staked"`
	CurrentRewardRate uint64      `json:"current_reward_rate"`
	PeriodEnd         uint64      `json:"period_end"`
	IsActive          bool        `json:"is_active"`
	MinStakeAmount    uint64      `json:"min_stake_amount"`
	EarlyUnstakeFee   uint64      `json:"early_unstake_fee"`
	OracleAddress     string      `json:"oracle_address"`
	CreatedAtEpoch    uint64      `json:"created_at_epoch"`

	FireRegisteredAtEpoch uint64 `json:"fire_registered_at_epoch,omitempty"`
	FireAttestationHash   string `json:"fire_attestation_hash,omitempty"`
}

// PeriodEnded reports whether claims are permitted at epoch.
func (p StakingPool) PeriodEnded(epoch uint64) bool {
	return epoch >= p.PeriodEnd
}

// Validate performs stateless validation of a stored pool.
func (p StakingPool) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("pool id cannot be empty")
	}
	if strings.TrimSpace(p.ForestID) == "" {
		return fmt.Errorf("pool %s: forest id cannot be empty", p.ID)
	}
	if p.TotalStaked.IsNil() || p.TotalStaked.IsNegative() {
		return fmt.Errorf("pool %s: total staked must be non-negative", p.ID)
	}
	if strings.TrimSpace(p.OracleAddress) == "" {
		return fmt.Errorf("pool %s: oracle address cannot be empty", p.ID)
	}
	if p.EarlyUnstakeFee > Precision {
		return fmt.Errorf("pool %s: early unstake fee must be in [0, %d]", p.ID, Precision)
	}
	if p.CurrentRewardRate > Precision {
		return fmt.Errorf("pool %s: reward rate must be in [0, %d]", p.ID, Precision)
	}
	return nil
}

// PoolCoverage compares a pool's custody against the principal of its live
// stake tokens. Reward payouts draw on the same custody, so a pool can end up
// owing more principal than it holds; Shortfall is zero when fully covered.
type PoolCoverage struct {
	PoolID      string      `json:"pool_id"`
	IsActive    bool        `json:"is_active"`
	TotalStaked sdkmath.Int `json:"total_staked"`
	Outstanding sdkmath.Int `json:"outstanding"`
	LiveStakes  int         `json:"live_stakes"`
	Shortfall   sdkmath.Int `json:"shortfall"`
}

// Covered reports whether custody backs every live stake's principal.
func (c PoolCoverage) Covered() bool {
	return c.Shortfall.IsZero()
}

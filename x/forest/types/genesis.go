package types

import "fmt"

// GenesisState is the forest module genesis.
//
// Economics is nil for a fresh chain; InitGenesis then initializes it from
// Params. An exported genesis carries the live economics record.
type GenesisState struct {
	Params     Params          `json:"params"`
	Economics  *TokenEconomics `json:"economics,omitempty"`
	Pools      []StakingPool   `json:"pools"`
	Stakes     []StakeToken    `json:"stakes"`
	PoolCount  uint64          `json:"pool_count"`
	StakeCount uint64          `json:"stake_count"`
}

// DefaultGenesis returns the default genesis state.
func DefaultGenesis() *GenesisState {
	return &GenesisState{
		Params: DefaultParams(),
		Pools:  []StakingPool{},
		Stakes: []StakeToken{},
	}
}

// Validate performs basic genesis state validation.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	if gs.Economics != nil {
		if err := gs.Economics.Validate(); err != nil {
			return fmt.Errorf("invalid economics: %w", err)
		}
	}

	pools := make(map[string]struct{}, len(gs.Pools))
	for i, pool := range gs.Pools {
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("invalid pool at index %d: %w", i, err)
		}
		if _, exists := pools[pool.ID]; exists {
			return fmt.Errorf("duplicate pool id: %s", pool.ID)
		}
		pools[pool.ID] = struct{}{}
	}

	stakes := make(map[string]struct{}, len(gs.Stakes))
	for i, stake := range gs.Stakes {
		if err := stake.Validate(); err != nil {
			return fmt.Errorf("invalid stake at index %d: %w", i, err)
		}
		if _, exists := stakes[stake.ID]; exists {
			return fmt.Errorf("duplicate stake id: %s", stake.ID)
		}
		if _, exists := pools[stake.PoolID]; !exists {
			return fmt.Errorf("stake %s references unknown pool %s", stake.ID, stake.PoolID)
		}
		stakes[stake.ID] = struct{}{}
	}

	if uint64(len(gs.Pools)) > gs.PoolCount {
		return fmt.Errorf("pool count %d is below number of pools %d", gs.PoolCount, len(gs.Pools))
	}
	if uint64(len(gs.Stakes)) > gs.StakeCount {
		return fmt.Errorf("stake count %d is below number of stakes %d", gs.StakeCount, len(gs.Stakes))
	}

	return nil
}

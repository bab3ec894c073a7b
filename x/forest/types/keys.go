package types

const (
	// ModuleName is the forest staking module namespace.
	ModuleName = "forest"

	// StoreKey is the module KV store key.
	StoreKey = ModuleName

	// TreasuryModuleName is the module account holding protocol fees.
	TreasuryModuleName = "forest_treasury"
)

var (
	// ParamsKey stores module parameters.
	ParamsKey = []byte{0x01}

	// EconomicsKey stores the token economics singleton.
	EconomicsKey = []byte{0x02}

	// PoolKeyPrefix stores staking pools by id.
	PoolKeyPrefix = []byte{0x03}

	// StakeKeyPrefix stores live stake tokens by id.
	StakeKeyPrefix = []byte{0x04}

	// StakesByOwnerKeyPrefix indexes stake ids by (owner, stake id).
	StakesByOwnerKeyPrefix = []byte{0x05}

	// StakesByPoolKeyPrefix indexes stake ids by (pool id, stake id).
	StakesByPoolKeyPrefix = []byte{0x06}

	// PoolCountKey stores the last assigned pool sequence.
	PoolCountKey = []byte{0x07}

	// StakeCountKey stores the last assigned stake sequence.
	StakeCountKey = []byte{0x08}
)

package types

// Event types emitted by the forest module.
const (
	EventTypePriceUpdated         = "price_updated"
	EventTypeRewardRateUpdated    = "reward_rate_updated"
	EventTypeStakeCreated         = "stake_created"
	EventTypePoolCreated          = "pool_created"
	EventTypeRewardsClaimed       = "rewards_claimed"
	EventTypeEarlyUnstaked        = "early_unstaked"
	EventTypeForestFireRegistered = "forest_fire_registered"

	AttributeKeyNewPrice    = "new_price"
	AttributeKeyNewRate     = "new_rate"
	AttributeKeyTotalSupply = "total_supply"
	AttributeKeyTokenID     = "token_id"
	AttributeKeyPoolID      = "pool_id"
	AttributeKeyForestID    = "forest_id"
	AttributeKeyAmount      = "amount"
	AttributeKeyOwner       = "owner"
	AttributeKeyOracle      = "oracle"
	AttributeKeyPeriodEnd   = "period_end"
	AttributeKeyReward      = "reward"
	AttributeKeyPayout      = "payout"
	AttributeKeyFee         = "fee"
	AttributeKeyAttestation = "attestation_hash"
)

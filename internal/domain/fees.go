package domain

// FeeSchedule holds the currently effective factory fees in smallest units.
// Both fields are independently settable by the factory administrator and
// have no retroactive effect on already-committed tokens.
type FeeSchedule struct {
	BaseFee     uint64 `json:"base_fee"`     // charged by create_token and mint_tokens
	MetadataFee uint64 `json:"metadata_fee"` // charged by set_metadata
}

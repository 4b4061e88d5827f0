package domain

// CreationRecord is the factory's durable record describing one issued token.
// Corresponds to the creation_records table in PostgreSQL.
// Records are append-only: the only field that ever changes after creation is
// Metadata, which transitions absent to present exactly once.
type CreationRecord struct {
	TokenAddress  string   `json:"token_address"`  // PRIMARY KEY, base58 derived address
	Creator       string   `json:"creator"`        // identity that requested issuance
	Name          string   `json:"name"`           // 1-32 characters
	Symbol        string   `json:"symbol"`         // 1-12 characters
	Decimals      uint8    `json:"decimals"`       // 0-18
	InitialSupply uint64   `json:"initial_supply"` // minted to the creator at issuance
	MintAuthority string   `json:"mint_authority"` // fixed at creation, never rotated
	FeePaid       uint64   `json:"fee_paid"`       // historical creation fee, never restated
	Metadata      Metadata `json:"metadata"`       // absent | present(uri)
	CreatedAt     int64    `json:"created_at"`     // Unix timestamp in milliseconds
}

// TokenInfo is the read-side view of a token: its creation record plus the
// live total supply queried from the token instance. TotalSupply is never
// served from a cached registry field.
type TokenInfo struct {
	CreationRecord
	TotalSupply uint64 `json:"total_supply"`
}

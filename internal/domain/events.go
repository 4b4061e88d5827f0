package domain

// EventType identifies a committed factory mutation.
type EventType string

// Factory event types.
const (
	EventTokenCreated EventType = "TOKEN_CREATED"
	EventMetadataSet  EventType = "METADATA_SET"
	EventTokensMinted EventType = "TOKENS_MINTED"
	EventFeesUpdated  EventType = "FEES_UPDATED"
)

// IssuanceEvent describes one committed factory invocation.
// Corresponds to the issuance_events table in ClickHouse.
// Events are emitted only after commit; an aborted invocation emits nothing.
type IssuanceEvent struct {
	EventType    EventType `json:"event_type"`
	TokenAddress string    `json:"token_address"` // empty for FEES_UPDATED
	Actor        string    `json:"actor"`         // caller identity of the invocation
	Amount       uint64    `json:"amount"`        // initial supply or mint amount, 0 otherwise
	FeePaid      uint64    `json:"fee_paid"`      // fee credited to the treasury
	StateVersion uint64    `json:"state_version"` // factory state version after commit
	Timestamp    int64     `json:"timestamp"`     // Unix timestamp in milliseconds
}

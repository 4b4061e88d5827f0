package domain

// Procedure names accepted by the ledger.
const (
	ProcedureCreateToken = "create_token"
	ProcedureSetMetadata = "set_metadata"
	ProcedureMintTokens  = "mint_tokens"
	ProcedureUpdateFees  = "update_fees"
)

// CreateTokenInput carries the inputs of one create_token invocation.
type CreateTokenInput struct {
	Creator       string `json:"creator"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Decimals      uint8  `json:"decimals"`
	InitialSupply uint64 `json:"initial_supply"`
	FeePayment    uint64 `json:"fee_payment"`
}

// SetMetadataInput carries the inputs of one set_metadata invocation.
type SetMetadataInput struct {
	TokenAddress string `json:"token_address"`
	Caller       string `json:"caller"`
	MetadataURI  string `json:"metadata_uri"`
	FeePayment   uint64 `json:"fee_payment"`
}

// MintTokensInput carries the inputs of one mint_tokens invocation.
type MintTokensInput struct {
	TokenAddress string `json:"token_address"`
	Caller       string `json:"caller"`
	Recipient    string `json:"recipient"`
	Amount       uint64 `json:"amount"`
	FeePayment   uint64 `json:"fee_payment"`
}

// UpdateFeesInput carries the inputs of one update_fees invocation.
// Nil fields leave the current fee unchanged (partial update).
type UpdateFeesInput struct {
	Caller         string  `json:"caller"`
	NewBaseFee     *uint64 `json:"new_base_fee,omitempty"`
	NewMetadataFee *uint64 `json:"new_metadata_fee,omitempty"`
}

// Invocation is one submitted procedure call. Exactly one input field matching
// Procedure is non-nil. This is also the journal wire format.
type Invocation struct {
	Procedure   string            `json:"procedure"`
	Create      *CreateTokenInput `json:"create,omitempty"`
	SetMetadata *SetMetadataInput `json:"set_metadata,omitempty"`
	Mint        *MintTokensInput  `json:"mint,omitempty"`
	UpdateFees  *UpdateFeesInput  `json:"update_fees,omitempty"`
}

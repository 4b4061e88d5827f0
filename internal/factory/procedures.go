package factory

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"token-factory/internal/domain"
	"token-factory/internal/token"
)

// Input bounds for create_token.
const (
	NameMinLen   = 1
	NameMaxLen   = 32
	SymbolMinLen = 1
	SymbolMaxLen = 12
	MaxDecimals  = 18
)

// Factory executes issuance procedures against an explicitly passed State.
type Factory struct {
	deployer *token.Deployer
}

// New creates a factory backed by the given instance deployer.
func New(deployer *token.Deployer) *Factory {
	return &Factory{deployer: deployer}
}

// CreateToken validates the issuance request, deploys a new token instance,
// mints the initial supply to the creator, inserts the creation record, and
// credits the fee to the treasury. All of that happens only after every
// check has passed; a returned error means none of it happened.
//
// The new instance's mint authority is the factory administrator at
// creation time, stored per token so later administrator context never
// retroactively changes it.
func (f *Factory) CreateToken(st *State, now int64, in domain.CreateTokenInput) (string, *domain.IssuanceEvent, error) {
	if in.Creator == "" {
		return "", nil, fmt.Errorf("%w: creator identity is empty", ErrInvalidParameters)
	}
	if n := utf8.RuneCountInString(in.Name); n < NameMinLen || n > NameMaxLen {
		return "", nil, fmt.Errorf("%w: name must be %d-%d characters, got %d", ErrInvalidParameters, NameMinLen, NameMaxLen, n)
	}
	if n := utf8.RuneCountInString(in.Symbol); n < SymbolMinLen || n > SymbolMaxLen {
		return "", nil, fmt.Errorf("%w: symbol must be %d-%d characters, got %d", ErrInvalidParameters, SymbolMinLen, SymbolMaxLen, n)
	}
	if in.Decimals > MaxDecimals {
		return "", nil, fmt.Errorf("%w: decimals must be 0-%d, got %d", ErrInvalidParameters, MaxDecimals, in.Decimals)
	}
	if in.InitialSupply == 0 {
		return "", nil, fmt.Errorf("%w: initial supply must be positive", ErrInvalidParameters)
	}
	if in.FeePayment < st.fees.BaseFee {
		return "", nil, fmt.Errorf("%w: payment %d < base fee %d", ErrInsufficientFee, in.FeePayment, st.fees.BaseFee)
	}

	// The state version serves as the address nonce, so concurrent
	// submissions can never be assigned colliding addresses in any
	// serialization order.
	mintAuthority := st.administrator
	inst, err := f.deployer.Deploy(in.Creator, in.Name, in.Symbol, in.Decimals, mintAuthority, st.version)
	if err != nil {
		return "", nil, fmt.Errorf("deploy token instance: %w", err)
	}
	if _, exists := st.registry[inst.Address()]; exists {
		return "", nil, fmt.Errorf("%w: token address %s already registered", ErrInvalidParameters, inst.Address())
	}

	// Commit. Nothing below can fail: the instance starts at zero supply
	// and the mint is performed by its own authority with a validated
	// positive amount.
	if err := inst.Mint(mintAuthority, in.Creator, in.InitialSupply); err != nil {
		return "", nil, fmt.Errorf("mint initial supply: %w", err)
	}

	record := &domain.CreationRecord{
		TokenAddress:  inst.Address(),
		Creator:       in.Creator,
		Name:          in.Name,
		Symbol:        in.Symbol,
		Decimals:      in.Decimals,
		InitialSupply: in.InitialSupply,
		MintAuthority: mintAuthority,
		FeePaid:       in.FeePayment,
		Metadata:      domain.MetadataAbsent(),
		CreatedAt:     now,
	}
	st.registry[record.TokenAddress] = record
	st.instances[record.TokenAddress] = inst
	st.treasuryBalance += in.FeePayment
	st.version++

	event := &domain.IssuanceEvent{
		EventType:    domain.EventTokenCreated,
		TokenAddress: record.TokenAddress,
		Actor:        in.Creator,
		Amount:       in.InitialSupply,
		FeePaid:      in.FeePayment,
		StateVersion: st.version,
		Timestamp:    now,
	}
	return record.TokenAddress, event, nil
}

// SetMetadata performs the one-time absent-to-present metadata transition.
// Re-submitting an identical URI still fails: the field is write-once
// unconditionally.
func (f *Factory) SetMetadata(st *State, now int64, in domain.SetMetadataInput) (*domain.IssuanceEvent, error) {
	record, exists := st.registry[in.TokenAddress]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, in.TokenAddress)
	}
	if in.Caller != record.MintAuthority {
		return nil, fmt.Errorf("%w: caller %s is not the admin of %s", ErrUnauthorized, in.Caller, in.TokenAddress)
	}
	if record.Metadata.Present() {
		return nil, fmt.Errorf("%w: %s", ErrMetadataAlreadySet, in.TokenAddress)
	}
	if in.FeePayment < st.fees.MetadataFee {
		return nil, fmt.Errorf("%w: payment %d < metadata fee %d", ErrInsufficientFee, in.FeePayment, st.fees.MetadataFee)
	}

	record.Metadata = domain.MetadataPresent(in.MetadataURI)
	st.treasuryBalance += in.FeePayment
	st.version++

	return &domain.IssuanceEvent{
		EventType:    domain.EventMetadataSet,
		TokenAddress: in.TokenAddress,
		Actor:        in.Caller,
		FeePaid:      in.FeePayment,
		StateVersion: st.version,
		Timestamp:    now,
	}, nil
}

// MintTokens credits amount to the recipient on the token instance, growing
// its total supply. Only the token's own mint authority may call it; that
// authority is per token and may differ from the factory administrator.
// The registry record is not updated with supply: supply is owned by the
// instance and read back live.
func (f *Factory) MintTokens(st *State, now int64, in domain.MintTokensInput) (*domain.IssuanceEvent, error) {
	record, exists := st.registry[in.TokenAddress]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, in.TokenAddress)
	}
	inst := st.instances[in.TokenAddress]

	if err := inst.CheckMint(in.Caller, in.Amount); err != nil {
		switch {
		case errors.Is(err, token.ErrNotMintAuthority):
			return nil, fmt.Errorf("%w: caller %s is not the admin of %s", ErrUnauthorized, in.Caller, in.TokenAddress)
		case errors.Is(err, token.ErrZeroAmount), errors.Is(err, token.ErrSupplyOverflow):
			return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, err)
		default:
			return nil, err
		}
	}
	if in.Recipient == "" {
		return nil, fmt.Errorf("%w: recipient identity is empty", ErrInvalidParameters)
	}
	if in.FeePayment < st.fees.BaseFee {
		return nil, fmt.Errorf("%w: payment %d < base fee %d", ErrInsufficientFee, in.FeePayment, st.fees.BaseFee)
	}

	if err := inst.Mint(in.Caller, in.Recipient, in.Amount); err != nil {
		return nil, fmt.Errorf("mint tokens: %w", err)
	}
	st.treasuryBalance += in.FeePayment
	st.version++

	return &domain.IssuanceEvent{
		EventType:    domain.EventTokensMinted,
		TokenAddress: in.TokenAddress,
		Actor:        in.Caller,
		Amount:       in.Amount,
		FeePaid:      in.FeePayment,
		StateVersion: st.version,
		Timestamp:    now,
	}, nil
}

// UpdateFees replaces only the fee fields that were supplied; nil fields
// leave the current value unchanged. Already-committed creation records keep
// their historical FeePaid untouched.
func (f *Factory) UpdateFees(st *State, now int64, in domain.UpdateFeesInput) (*domain.IssuanceEvent, error) {
	if in.Caller != st.administrator {
		return nil, fmt.Errorf("%w: caller %s is not the factory administrator", ErrUnauthorized, in.Caller)
	}

	if in.NewBaseFee != nil {
		st.fees.BaseFee = *in.NewBaseFee
	}
	if in.NewMetadataFee != nil {
		st.fees.MetadataFee = *in.NewMetadataFee
	}
	st.version++

	return &domain.IssuanceEvent{
		EventType:    domain.EventFeesUpdated,
		Actor:        in.Caller,
		StateVersion: st.version,
		Timestamp:    now,
	}, nil
}

// GetTokenInfo returns the creation record plus the live total supply
// queried from the token instance. It has no side effects and performs no
// authorization check.
func (f *Factory) GetTokenInfo(st *State, tokenAddress string) (*domain.TokenInfo, error) {
	record, exists := st.Record(tokenAddress)
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenAddress)
	}
	inst := st.instances[tokenAddress]

	return &domain.TokenInfo{
		CreationRecord: *record,
		TotalSupply:    inst.TotalSupply(),
	}, nil
}

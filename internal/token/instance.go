// Package token implements the standard fungible-token instance the factory
// deploys: per-holder balances, total supply, and mint restricted to the
// authority fixed at creation. Transfer/approve semantics follow the usual
// fungible-token contract; the factory only parameterizes instances, it never
// owns their internal state.
package token

import (
	"errors"
	"math"
)

// Instance errors.
var (
	// ErrNotMintAuthority is returned when a caller other than the fixed
	// mint authority attempts to mint.
	ErrNotMintAuthority = errors.New("caller is not the mint authority")

	// ErrSupplyOverflow is returned when a mint would push total supply
	// past the maximum representable value.
	ErrSupplyOverflow = errors.New("mint would overflow total supply")

	// ErrZeroAmount is returned for zero-amount mints and transfers.
	ErrZeroAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance is returned when a transfer exceeds the
	// sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// MaxSupply is the largest representable total supply.
const MaxSupply = math.MaxUint64

// Instance is one deployed fungible token. All mutation goes through the
// serialized ledger, so no internal locking is needed.
type Instance struct {
	address       string
	name          string
	symbol        string
	decimals      uint8
	mintAuthority string

	supply   uint64
	balances map[string]uint64
}

// NewInstance creates a token instance with zero supply.
// The mint authority is fixed for the instance's lifetime.
func NewInstance(address, name, symbol string, decimals uint8, mintAuthority string) *Instance {
	return &Instance{
		address:       address,
		name:          name,
		symbol:        symbol,
		decimals:      decimals,
		mintAuthority: mintAuthority,
		balances:      make(map[string]uint64),
	}
}

// Address returns the instance's ledger address.
func (i *Instance) Address() string { return i.address }

// Name returns the token name.
func (i *Instance) Name() string { return i.name }

// Symbol returns the token symbol.
func (i *Instance) Symbol() string { return i.symbol }

// Decimals returns the token's decimal places.
func (i *Instance) Decimals() uint8 { return i.decimals }

// MintAuthority returns the identity allowed to mint.
func (i *Instance) MintAuthority() string { return i.mintAuthority }

// TotalSupply returns the current total supply, which always equals the sum
// of all balances.
func (i *Instance) TotalSupply() uint64 { return i.supply }

// BalanceOf returns the balance of holder.
func (i *Instance) BalanceOf(holder string) uint64 {
	return i.balances[holder]
}

// CheckMint validates a mint without applying it.
func (i *Instance) CheckMint(caller string, amount uint64) error {
	if caller != i.mintAuthority {
		return ErrNotMintAuthority
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if amount > MaxSupply-i.supply {
		return ErrSupplyOverflow
	}
	return nil
}

// Mint credits amount to recipient and grows total supply by amount.
// Only the fixed mint authority may call it.
func (i *Instance) Mint(caller, recipient string, amount uint64) error {
	if err := i.CheckMint(caller, amount); err != nil {
		return err
	}
	i.balances[recipient] += amount
	i.supply += amount
	return nil
}

// Transfer moves amount from sender to recipient.
func (i *Instance) Transfer(sender, recipient string, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if i.balances[sender] < amount {
		return ErrInsufficientBalance
	}
	i.balances[sender] -= amount
	i.balances[recipient] += amount
	return nil
}

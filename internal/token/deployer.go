package token

import (
	"fmt"

	"token-factory/internal/idhash"
)

// Deployer instantiates token instances at deterministically derived
// addresses. The factory invokes it as a capability; it never mutates
// factory state itself.
type Deployer struct {
	factoryID string // seed namespacing all addresses issued by this factory
}

// NewDeployer creates a deployer for the given factory identity.
func NewDeployer(factoryID string) *Deployer {
	return &Deployer{factoryID: factoryID}
}

// Deploy derives a fresh address from (creator, name, symbol, nonce) and
// returns a new zero-supply instance with the given mint authority.
func (d *Deployer) Deploy(creator, name, symbol string, decimals uint8, mintAuthority string, nonce uint64) (*Instance, error) {
	address, err := idhash.DeriveTokenAddress(d.factoryID, creator, name, symbol, nonce)
	if err != nil {
		return nil, fmt.Errorf("derive token address: %w", err)
	}
	return NewInstance(address, name, symbol, decimals, mintAuthority), nil
}

package idhash

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// addressMarker is appended to the seed material so that derived addresses
// can never collide with hashes computed for other purposes.
const addressMarker = "TokenFactoryAddress"

// DeriveTokenAddress computes a deterministic token address.
// Formula: SHA256(factory_id|creator|name|symbol|nonce|bump|marker), searching
// bump seeds from 255 downward for a digest that is off the ed25519 curve.
// Returns the base58 encoding of the 32-byte digest.
//
// The nonce is the factory state version at submission time, so two
// create_token calls can never be assigned the same address regardless of
// their serialization order.
func DeriveTokenAddress(factoryID, creator, name, symbol string, nonce uint64) (string, error) {
	for bump := byte(255); bump > 0; bump-- {
		data := fmt.Sprintf("%s|%s|%s|%s|%d|%d|%s",
			factoryID,
			creator,
			name,
			symbol,
			nonce,
			bump,
			addressMarker,
		)

		hash := sha256.Sum256([]byte(data))
		if !IsOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}

	return "", fmt.Errorf("no off-curve address for nonce %d", nonce)
}

// IsOnCurve reports whether a 32-byte value is a valid ed25519 curve point.
// Derived addresses must be off-curve so no key pair can ever sign for them.
func IsOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// Package factory implements the issuance factory core: the versioned state
// aggregate and the five procedures that mutate or read it. Procedures
// validate every precondition before touching state, so a returned error
// always means no effect happened. Serialization of invocations is the
// ledger's job; nothing here locks.
package factory

import (
	"sort"

	"token-factory/internal/domain"
	"token-factory/internal/token"
)

// State is the factory state aggregate: administrator and treasury
// identities, the fee schedule, the token registry, and the deployed
// instances. It is explicitly passed to every procedure and carries a
// version that increments once per committed mutation; tests construct a
// fresh State instead of sharing globals.
type State struct {
	version       uint64
	administrator string
	treasury      string
	fees          domain.FeeSchedule

	// registry is keyed by token address for constant-time lookup.
	// Membership is append-only; only the metadata field of a record
	// ever changes after insertion.
	registry  map[string]*domain.CreationRecord
	instances map[string]*token.Instance

	// treasuryBalance accrues all collected fees in smallest units.
	treasuryBalance uint64
}

// NewState creates the factory state at initialization time: administrator
// and treasury set, fee schedule set, empty registry.
func NewState(administrator, treasury string, fees domain.FeeSchedule) *State {
	return &State{
		administrator: administrator,
		treasury:      treasury,
		fees:          fees,
		registry:      make(map[string]*domain.CreationRecord),
		instances:     make(map[string]*token.Instance),
	}
}

// Version returns the number of committed mutations.
func (s *State) Version() uint64 { return s.version }

// Administrator returns the factory administrator identity.
func (s *State) Administrator() string { return s.administrator }

// Treasury returns the treasury identity.
func (s *State) Treasury() string { return s.treasury }

// Fees returns the currently effective fee schedule.
func (s *State) Fees() domain.FeeSchedule { return s.fees }

// TreasuryBalance returns the total fees collected so far.
func (s *State) TreasuryBalance() uint64 { return s.treasuryBalance }

// RegistrySize returns the number of issued tokens.
func (s *State) RegistrySize() int { return len(s.registry) }

// Record returns a copy of the creation record for the given address.
func (s *State) Record(tokenAddress string) (*domain.CreationRecord, bool) {
	r, exists := s.registry[tokenAddress]
	if !exists {
		return nil, false
	}
	recordCopy := *r
	return &recordCopy, true
}

// Records returns copies of all creation records ordered by creation time,
// then address for a stable order within one timestamp.
func (s *State) Records() []*domain.CreationRecord {
	result := make([]*domain.CreationRecord, 0, len(s.registry))
	for _, r := range s.registry {
		recordCopy := *r
		result = append(result, &recordCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].TokenAddress < result[j].TokenAddress
	})
	return result
}

// Instance returns the deployed token instance for the given address.
// The instance is live, not a copy; callers outside the factory must treat
// it as read-only.
func (s *State) Instance(tokenAddress string) (*token.Instance, bool) {
	inst, exists := s.instances[tokenAddress]
	return inst, exists
}

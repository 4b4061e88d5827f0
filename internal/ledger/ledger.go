// Package ledger serializes factory invocations the way the host chain's
// consensus would: one procedure call per transaction, executed to completion
// with exclusive access to the factory state. Any serialization order of
// valid submissions yields an internally consistent state.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"token-factory/internal/domain"
	"token-factory/internal/factory"
	"token-factory/internal/observability"
	"token-factory/internal/token"
)

// Clock returns the current time in Unix milliseconds.
type Clock func() int64

// SystemClock is the wall-clock implementation.
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// Options configures a Ledger.
type Options struct {
	Administrator string
	Treasury      string
	Fees          domain.FeeSchedule

	// FactoryID namespaces derived token addresses. Defaults to the
	// administrator identity.
	FactoryID string

	// Clock defaults to SystemClock.
	Clock Clock

	// Journal, when set, receives every committed invocation.
	Journal *Journal

	Logger *log.Logger
}

// Result describes one committed invocation.
type Result struct {
	// TokenAddress is set for create_token.
	TokenAddress string
	Event        *domain.IssuanceEvent
}

// Ledger owns the factory state and serializes all submissions.
type Ledger struct {
	mu      sync.Mutex
	factory *factory.Factory
	state   *factory.State
	clock   Clock
	journal *Journal
	logger  *log.Logger

	// subscribers are notified after commit, outside the atomicity
	// boundary. Register before serving traffic.
	subscribers []func(domain.IssuanceEvent)
}

// New creates a ledger with freshly initialized factory state.
func New(opts Options) *Ledger {
	factoryID := opts.FactoryID
	if factoryID == "" {
		factoryID = opts.Administrator
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Ledger{
		factory: factory.New(token.NewDeployer(factoryID)),
		state:   factory.NewState(opts.Administrator, opts.Treasury, opts.Fees),
		clock:   clock,
		journal: opts.Journal,
		logger:  logger,
	}
}

// Subscribe registers a committed-event callback. Not safe to call
// concurrently with Submit.
func (l *Ledger) Subscribe(fn func(domain.IssuanceEvent)) {
	l.subscribers = append(l.subscribers, fn)
}

// Submit executes one invocation atomically. On error, no state was
// mutated, nothing was journaled, and no event is emitted.
func (l *Ledger) Submit(ctx context.Context, inv domain.Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := l.submitAt(l.clock(), inv, true)
	observability.RecordInvocation(inv.Procedure, string(factory.KindOf(err)), time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	observability.UpdateFactoryState(l.state.Version(), l.state.RegistrySize(), l.state.TreasuryBalance())
	l.mu.Unlock()

	for _, fn := range l.subscribers {
		fn(*result.Event)
	}
	return result, nil
}

// submitAt applies an invocation at the given timestamp. journaled controls
// whether the committed entry is appended to the journal; replay passes
// false to avoid rewriting history.
func (l *Ledger) submitAt(now int64, inv domain.Invocation, journaled bool) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result Result
	var err error

	switch inv.Procedure {
	case domain.ProcedureCreateToken:
		if inv.Create == nil {
			return nil, fmt.Errorf("%w: missing create_token input", factory.ErrInvalidParameters)
		}
		result.TokenAddress, result.Event, err = l.factory.CreateToken(l.state, now, *inv.Create)
	case domain.ProcedureSetMetadata:
		if inv.SetMetadata == nil {
			return nil, fmt.Errorf("%w: missing set_metadata input", factory.ErrInvalidParameters)
		}
		result.Event, err = l.factory.SetMetadata(l.state, now, *inv.SetMetadata)
	case domain.ProcedureMintTokens:
		if inv.Mint == nil {
			return nil, fmt.Errorf("%w: missing mint_tokens input", factory.ErrInvalidParameters)
		}
		result.Event, err = l.factory.MintTokens(l.state, now, *inv.Mint)
	case domain.ProcedureUpdateFees:
		if inv.UpdateFees == nil {
			return nil, fmt.Errorf("%w: missing update_fees input", factory.ErrInvalidParameters)
		}
		result.Event, err = l.factory.UpdateFees(l.state, now, *inv.UpdateFees)
	default:
		return nil, fmt.Errorf("%w: unknown procedure %q", factory.ErrInvalidParameters, inv.Procedure)
	}
	if err != nil {
		return nil, err
	}

	if journaled && l.journal != nil {
		// Journal failures do not roll back the commit: the journal is a
		// replayable audit trail, not the source of truth.
		if jerr := l.journal.Append(JournalEntry{AppliedAt: now, Invocation: inv}); jerr != nil {
			l.logger.Printf("journal append failed: %v", jerr)
		}
	}

	return &result, nil
}

// Replay reapplies journaled invocations against the ledger using their
// recorded timestamps. The journal holds only committed invocations, so any
// failure aborts the replay.
func (l *Ledger) Replay(entries []JournalEntry) (int, error) {
	for i, entry := range entries {
		if _, err := l.submitAt(entry.AppliedAt, entry.Invocation, false); err != nil {
			return i, fmt.Errorf("replay entry %d (%s): %w", i, entry.Invocation.Procedure, err)
		}
	}
	return len(entries), nil
}

// TokenInfo returns the creation record plus live total supply.
func (l *Ledger) TokenInfo(tokenAddress string) (*domain.TokenInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.factory.GetTokenInfo(l.state, tokenAddress)
}

// Balance returns holder's balance on the given token instance.
func (l *Ledger) Balance(tokenAddress, holder string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	inst, exists := l.state.Instance(tokenAddress)
	if !exists {
		return 0, fmt.Errorf("%w: %s", factory.ErrTokenNotFound, tokenAddress)
	}
	return inst.BalanceOf(holder), nil
}

// Records returns the registry snapshot ordered by creation time.
func (l *Ledger) Records() []*domain.CreationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Records()
}

// Summary is a point-in-time view of the factory state.
type Summary struct {
	Version         uint64             `json:"version"`
	Administrator   string             `json:"administrator"`
	Treasury        string             `json:"treasury"`
	Fees            domain.FeeSchedule `json:"fees"`
	RegistrySize    int                `json:"registry_size"`
	TreasuryBalance uint64             `json:"treasury_balance"`
}

// Summarize returns the current factory state summary.
func (l *Ledger) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	return Summary{
		Version:         l.state.Version(),
		Administrator:   l.state.Administrator(),
		Treasury:        l.state.Treasury(),
		Fees:            l.state.Fees(),
		RegistrySize:    l.state.RegistrySize(),
		TreasuryBalance: l.state.TreasuryBalance(),
	}
}

package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"token-factory/internal/domain"
)

// JournalEntry is one committed invocation with its applied timestamp.
// Entries serialize as JSON lines.
type JournalEntry struct {
	AppliedAt  int64             `json:"applied_at"`
	Invocation domain.Invocation `json:"invocation"`
}

// Journal is an append-only JSON-lines file of committed invocations.
// Replaying a journal against a fresh ledger reproduces the exact state,
// including derived token addresses.
type Journal struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenJournal opens (or creates) a journal file for appending.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return &Journal{f: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one entry.
func (j *Journal) Append(entry JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(entry); err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// ReadJournal loads all entries from a journal file in order.
func ReadJournal(path string) ([]JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	defer f.Close()

	var entries []JournalEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("decode journal line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal %s: %w", path, err)
	}
	return entries, nil
}

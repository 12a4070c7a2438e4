package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ResultStore keeps finished import results so they can be fetched after
// the job has left memory, or from another server instance.
type ResultStore interface {
	Save(ctx context.Context, result *ImportResult) error

	// Load returns ErrImportNotFound for unknown or expired ids.
	Load(ctx context.Context, importID string) (*ImportResult, error)
}

// MemoryResults is an in-process ResultStore with a fixed TTL.
type MemoryResults struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryResult
}

type memoryResult struct {
	result  *ImportResult
	expires time.Time
}

// NewMemoryResults keeps results for ttl.
func NewMemoryResults(ttl time.Duration) *MemoryResults {
	return &MemoryResults{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryResult),
	}
}

// Save stores result under its ImportID. Results without an id are ignored.
func (m *MemoryResults) Save(_ context.Context, result *ImportResult) error {
	if result == nil || result.ImportID == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, e := range m.entries {
		if now.After(e.expires) {
			delete(m.entries, id)
		}
	}
	m.entries[result.ImportID] = memoryResult{result: result, expires: now.Add(m.ttl)}
	return nil
}

// Load returns a stored result.
func (m *MemoryResults) Load(_ context.Context, importID string) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[importID]
	if !ok || m.now().After(e.expires) {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, importID)
	}
	return e.result, nil
}

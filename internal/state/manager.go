package state

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type SearchState uint8

const (
	SearchIdle SearchState = iota
	SearchSearching
	SearchPopulated
	SearchFailed
)

func (s SearchState) String() string {
	switch s {
	case SearchSearching:
		return "searching"
	case SearchPopulated:
		return "populated"
	case SearchFailed:
		return "failed"
	default:
		return "idle"
	}
}

// SearchKey identifies the typing search of one field of one form. Forms
// built from the same saved template share field ids, so the form id is part
// of the key.
type SearchKey struct {
	FormID  uuid.UUID
	FieldID uuid.UUID
}

type fieldSearch struct {
	state      SearchState
	generation uint64
	cancel     context.CancelFunc
}

// SearchManager tracks the typing search of each field. A field has at most
// one search in flight; starting a new one cancels the previous.
type SearchManager struct {
	mu         sync.RWMutex
	searches   map[SearchKey]*fieldSearch
	generation uint64
}

func NewSearchManager() *SearchManager {
	return &SearchManager{
		searches: make(map[SearchKey]*fieldSearch),
	}
}

// Begin moves the field to Searching and returns the context the search must
// run under together with the generation that identifies this search in
// Finish and Settle.
func (m *SearchManager) Begin(ctx context.Context, key SearchKey) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if previous, ok := m.searches[key]; ok && previous.cancel != nil {
		previous.cancel()
	}
	m.generation++
	m.searches[key] = &fieldSearch{
		state:      SearchSearching,
		generation: m.generation,
		cancel:     cancel,
	}
	return ctx, m.generation
}

// Finish records the outcome of the search started as generation. It reports
// false when a newer search has replaced it.
func (m *SearchManager) Finish(key SearchKey, generation uint64, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.searches[key]
	if !ok || current.generation != generation || current.state != SearchSearching {
		return false
	}
	current.cancel()
	current.cancel = nil
	if err != nil {
		current.state = SearchFailed
	} else {
		current.state = SearchPopulated
	}
	return true
}

// Settle returns the field to Idle once the results of generation have been
// applied or discarded.
func (m *SearchManager) Settle(key SearchKey, generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.searches[key]
	if !ok || current.generation != generation || current.state == SearchSearching {
		return
	}
	delete(m.searches, key)
}

// Cancel stops any search in flight for the field and returns it to Idle.
func (m *SearchManager) Cancel(key SearchKey) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.searches[key]; ok {
		if current.cancel != nil {
			current.cancel()
		}
		delete(m.searches, key)
	}
}

func (m *SearchManager) State(key SearchKey) SearchState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if current, ok := m.searches[key]; ok {
		return current.state
	}
	return SearchIdle
}

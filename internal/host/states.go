package host

import (
	"sort"
	"sync"
)

// StateStore is the in-memory live state store. Entities are fed in through
// the REST API (or by the loopback invoker) and read by the boost core.
type StateStore struct {
	mu       sync.RWMutex
	entities map[string]EntityState
}

func NewStateStore() *StateStore {
	return &StateStore{entities: make(map[string]EntityState)}
}

var _ StateQuery = (*StateStore)(nil)

// Get returns the current state of an entity.
func (s *StateStore) Get(entityID string) (EntityState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.entities[entityID]
	return st, ok
}

// EntityIDs returns all known entity ids, sorted for stable iteration.
func (s *StateStore) EntityIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Set replaces the state of an entity. A nil attribute map keeps the
// previous attributes so partial updates don't drop metadata.
func (s *StateStore) Set(entityID, state string, attributes map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.entities[entityID]
	if attributes == nil {
		attributes = prev.Attributes
	}
	s.entities[entityID] = EntityState{State: state, Attributes: attributes}
}

// SetAttribute updates a single attribute, preserving the rest.
func (s *StateStore) SetAttribute(entityID, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.entities[entityID]
	attrs := make(map[string]any, len(st.Attributes)+1)
	for k, v := range st.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	st.Attributes = attrs
	s.entities[entityID] = st
}

// Remove deletes an entity from the store.
func (s *StateStore) Remove(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, entityID)
}

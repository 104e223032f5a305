package store

import (
	"sync"

	"github.com/christopherklint97/hourly/internal/entry"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entries is the in-memory collection views render from. It is replaced
// wholesale after every successful sync; selection is the only state it
// owns locally.
type Entries struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, entry.TimeEntry]
}

func NewEntries() *Entries {
	return &Entries{entries: orderedmap.New[string, entry.TimeEntry]()}
}

// ReplaceAll swaps the whole collection for entries, in the given order.
// A repeated ID keeps its first position and the later value.
func (s *Entries) ReplaceAll(entries []entry.TimeEntry) {
	next := orderedmap.New[string, entry.TimeEntry]()
	for _, e := range entries {
		e.Selected = false
		next.Set(e.ID, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = next
}

// List returns a copy of the collection in arrival order.
func (s *Entries) List() []entry.TimeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]entry.TimeEntry, 0, s.entries.Len())
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, pair.Value)
	}
	return result
}

// Get returns the entry with the given ID.
func (s *Entries) Get(id string) (entry.TimeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Get(id)
}

func (s *Entries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Len()
}

// Remove drops exactly the entry with id. It is only called once the
// remote delete has succeeded.
func (s *Entries) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries.Delete(id)
	return ok
}

// SetSelected marks or unmarks one entry.
func (s *Entries) SetSelected(id string, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(id)
	if !ok {
		return false
	}
	e.Selected = selected
	s.entries.Set(id, e)
	return true
}

// ToggleSelected flips the selection of one entry and returns the new state.
func (s *Entries) ToggleSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(id)
	if !ok {
		return false
	}
	e.Selected = !e.Selected
	s.entries.Set(id, e)
	return e.Selected
}

// SelectAll sets every entry's selection to selected.
func (s *Entries) SelectAll(selected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.Selected = selected
	}
}

// Selected returns copies of the selected entries in store order.
func (s *Entries) Selected() []entry.TimeEntry {
	var result []entry.TimeEntry
	for _, e := range s.List() {
		if e.Selected {
			result = append(result, e)
		}
	}
	return result
}

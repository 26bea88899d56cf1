// Package store holds handle records in memory.
//
// Records are keyed by (prefix, suffix). A prefix must exist before records
// can live under it; PutHandle creates missing prefixes, every other
// operation reports ErrPrefixNotFound for them. All operations are
// synchronous and safe for concurrent use.
package store

import (
	"fmt"
	"sort"
	"sync"

	"handlemock/internal/domain"
)

// PutOptions controls PutHandle.
type PutOptions struct {
	// Overwrite merges into an existing record instead of rejecting the put.
	Overwrite bool
}

// Store is an in-memory handle record store.
type Store struct {
	mu       sync.RWMutex
	prefixes map[string]map[string]domain.ValueList
}

// New creates an empty store
func New() *Store {
	return &Store{
		prefixes: make(map[string]map[string]domain.ValueList),
	}
}

// RegisterPrefix makes sure the prefix namespace exists. It reports whether
// the prefix was newly created.
func (s *Store) RegisterPrefix(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensurePrefix(prefix)
}

// HasPrefix reports whether the prefix is registered
func (s *Store) HasPrefix(prefix string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.prefixes[prefix]
	return ok
}

// GetHandle returns a copy of the value list stored under prefix/suffix.
func (s *Store) GetHandle(prefix, suffix string) (domain.ValueList, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.prefixes[prefix]
	if !ok {
		return nil, newError("get", prefix, suffix, ErrPrefixNotFound)
	}
	values, ok := ns[suffix]
	if !ok {
		return nil, newError("get", prefix, suffix, ErrHandleNotFound)
	}
	return values.Clone(), nil
}

// PutHandle stores the values of payload under prefix/suffix.
//
// payload is a decoded JSON body of the form {"values": [...]}. A new record
// is stored verbatim and reported as KindCreated. An existing record is left
// untouched with ErrAlreadyExists unless opts.Overwrite is set, in which case
// the values are index-merged into it and KindUpdated is returned.
func (s *Store) PutHandle(prefix, suffix string, payload any, opts PutOptions) (Kind, error) {
	values, err := domain.ParseValueList(payload)
	if err != nil {
		return KindProtocolError, newError("put", prefix, suffix, fmt.Errorf("%w: %w", ErrProtocol, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensurePrefix(prefix)
	ns := s.prefixes[prefix]

	existing, ok := ns[suffix]
	if !ok {
		ns[suffix] = values
		return KindCreated, nil
	}
	if !opts.Overwrite {
		return KindAlreadyExists, newError("put", prefix, suffix, ErrAlreadyExists)
	}

	ns[suffix] = mergeValues(existing, values)
	return KindUpdated, nil
}

// Delete removes the record at prefix/suffix. With indices, only the
// entries whose index is listed are removed and the remaining list, which
// may be empty, stays stored.
func (s *Store) Delete(prefix, suffix string, indices []string) (Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.prefixes[prefix]
	if !ok {
		return KindNotFoundPrefix, newError("delete", prefix, suffix, ErrPrefixNotFound)
	}
	values, ok := ns[suffix]
	if !ok {
		return KindNotFoundSuffix, newError("delete", prefix, suffix, ErrHandleNotFound)
	}

	if len(indices) == 0 {
		delete(ns, suffix)
		return KindSuccess, nil
	}

	ns[suffix] = removeIndices(values, indices)
	return KindSuccess, nil
}

// Prefixes returns the registered prefixes in sorted order
func (s *Store) Prefixes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.prefixes))
	for p := range s.prefixes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of stored handles across all prefixes
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, ns := range s.prefixes {
		n += len(ns)
	}
	return n
}

// Snapshot is a detached copy of store contents: prefix -> suffix -> values.
type Snapshot map[string]map[string]domain.ValueList

// Snapshot returns a deep copy of everything in the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, len(s.prefixes))
	for p, ns := range s.prefixes {
		cp := make(map[string]domain.ValueList, len(ns))
		for suffix, values := range ns {
			cp[suffix] = values.Clone()
		}
		out[p] = cp
	}
	return out
}

// LoadStats counts what Load did
type LoadStats struct {
	Prefixes int `json:"prefixes"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Load applies a snapshot to the store under a single lock. Prefixes in the
// snapshot are registered even when they hold no handles. Existing handles
// are index-merged when overwrite is set and skipped otherwise.
func (s *Store) Load(snap Snapshot, overwrite bool) LoadStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats LoadStats
	for prefix, handles := range snap {
		if s.ensurePrefix(prefix) {
			stats.Prefixes++
		}
		ns := s.prefixes[prefix]
		for suffix, values := range handles {
			existing, ok := ns[suffix]
			switch {
			case !ok:
				ns[suffix] = values.Clone()
				stats.Created++
			case overwrite:
				ns[suffix] = mergeValues(existing, values.Clone())
				stats.Updated++
			default:
				stats.Skipped++
			}
		}
	}
	return stats
}

// ensurePrefix must be called with mu held for writing.
func (s *Store) ensurePrefix(prefix string) bool {
	if _, ok := s.prefixes[prefix]; ok {
		return false
	}
	s.prefixes[prefix] = make(map[string]domain.ValueList)
	return true
}

package store

import (
	"fmt"
	"sort"

	"handlemock/internal/domain"
	"handlemock/internal/glob"
)

type filter struct {
	typ     string
	pattern *glob.Pattern
}

// ReverseLookup returns the handles under prefix whose values satisfy every
// filter. Filters map a value type to a glob over that value's data.value;
// for each filter only the first entry of the type is considered, and a
// record without such an entry fails. The result is sorted.
func (s *Store) ReverseLookup(prefix string, filters map[string]string) ([]string, error) {
	compiled, err := compileFilters(filters)
	if err != nil {
		return nil, newError("reverse lookup", prefix, "", fmt.Errorf("%w: %w", ErrProtocol, err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ns, ok := s.prefixes[prefix]
	if !ok {
		return nil, newError("reverse lookup", prefix, "", ErrPrefixNotFound)
	}

	handles := make([]string, 0)
	for suffix, values := range ns {
		if matchAll(compiled, values) {
			handles = append(handles, domain.HandleName(prefix, suffix))
		}
	}
	sort.Strings(handles)
	return handles, nil
}

func compileFilters(filters map[string]string) ([]filter, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]filter, 0, len(keys))
	for _, k := range keys {
		p, err := glob.Compile(filters[k])
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", k, err)
		}
		out = append(out, filter{typ: k, pattern: p})
	}
	return out, nil
}

func matchAll(filters []filter, values domain.ValueList) bool {
	for _, f := range filters {
		e, ok := values.FirstOfType(f.typ)
		if !ok {
			return false
		}
		if !f.pattern.Match(e.DataValue()) {
			return false
		}
	}
	return true
}

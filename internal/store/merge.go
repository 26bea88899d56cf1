package store

import "handlemock/internal/domain"

// mergeValues applies an overwrite put to an existing value list.
//
// Existing entries keep their position; those whose index appears in
// incoming are replaced by the incoming entry. Incoming entries with a new
// index are then appended in incoming order. When incoming repeats an index
// the last occurrence wins. Entries without an index never match anything
// and are always appended.
func mergeValues(existing, incoming domain.ValueList) domain.ValueList {
	byIndex := make(map[string]domain.Entry, len(incoming))
	for _, e := range incoming {
		if idx, ok := e.Index(); ok {
			byIndex[idx] = e
		}
	}

	seen := make(map[string]struct{}, len(existing))
	merged := make(domain.ValueList, 0, len(existing)+len(incoming))
	for _, e := range existing {
		idx, ok := e.Index()
		if !ok {
			merged = append(merged, e)
			continue
		}
		seen[idx] = struct{}{}
		if repl, found := byIndex[idx]; found {
			merged = append(merged, repl.Clone())
			continue
		}
		merged = append(merged, e)
	}

	appended := make(map[string]struct{})
	for _, e := range incoming {
		idx, ok := e.Index()
		if !ok {
			merged = append(merged, e)
			continue
		}
		if _, exists := seen[idx]; exists {
			continue
		}
		if _, dup := appended[idx]; dup {
			continue
		}
		appended[idx] = struct{}{}
		merged = append(merged, byIndex[idx])
	}
	return merged
}

// removeIndices drops every entry whose index is in indices. Each
// requested index matches both as given and in its numeric canonical form.
// Entries without an index compare as "".
func removeIndices(values domain.ValueList, indices []string) domain.ValueList {
	drop := make(map[string]struct{}, 2*len(indices))
	for _, idx := range indices {
		drop[idx] = struct{}{}
		drop[domain.QueryIndex(idx)] = struct{}{}
	}

	kept := make(domain.ValueList, 0, len(values))
	for _, e := range values {
		idx, _ := e.Index()
		if _, ok := drop[idx]; ok {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

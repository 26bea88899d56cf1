package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"handlemock/internal/domain"
	"handlemock/internal/store"

	"gopkg.in/yaml.v3"
)

// Seed represents the seed file structure. The same document shape is used
// for YAML seed files and for JSON import/export.
type Seed struct {
	Version  int                                    `yaml:"version" json:"version"`
	Prefixes []string                               `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Handles  map[string]map[string][]map[string]any `yaml:"handles,omitempty" json:"handles,omitempty"`
}

// LoadYAML loads a seed snapshot from a YAML file
func LoadYAML(path string) (store.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a seed snapshot from YAML bytes
func ParseYAML(data []byte) (store.Snapshot, error) {
	var y Seed
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return ToSnapshot(&y)
}

// ToSnapshot validates a decoded seed document and converts it into a
// store snapshot. Prefixes listed without handles are kept as empty
// namespaces.
func ToSnapshot(y *Seed) (store.Snapshot, error) {
	snap := make(store.Snapshot)

	for _, p := range y.Prefixes {
		if p == "" {
			return nil, fmt.Errorf("empty prefix in prefixes list")
		}
		snap[p] = make(map[string]domain.ValueList)
	}

	for prefix, handles := range y.Handles {
		if prefix == "" {
			return nil, fmt.Errorf("empty prefix in handles")
		}
		ns, ok := snap[prefix]
		if !ok {
			ns = make(map[string]domain.ValueList)
			snap[prefix] = ns
		}
		for suffix, entries := range handles {
			if suffix == "" {
				return nil, fmt.Errorf("empty suffix under prefix %s", prefix)
			}
			values := make(domain.ValueList, 0, len(entries))
			for i, e := range entries {
				if e == nil {
					return nil, fmt.Errorf("%s: value %d is empty", domain.HandleName(prefix, suffix), i)
				}
				values = append(values, domain.Entry(normalize(e).(map[string]any)))
			}
			ns[suffix] = values
		}
	}

	return snap, nil
}

// ExportYAML renders a snapshot in the seed file format
func ExportYAML(snap store.Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(FromSnapshot(snap))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// FromSnapshot builds a seed document from a snapshot. Prefixes without
// handles are listed under Prefixes.
func FromSnapshot(snap store.Snapshot) *Seed {
	y := &Seed{
		Version: 1,
		Handles: make(map[string]map[string][]map[string]any),
	}

	prefixes := make([]string, 0, len(snap))
	for p := range snap {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		handles := snap[prefix]
		if len(handles) == 0 {
			y.Prefixes = append(y.Prefixes, prefix)
			continue
		}
		out := make(map[string][]map[string]any, len(handles))
		for suffix, values := range handles {
			entries := make([]map[string]any, len(values))
			for i, e := range values {
				entries[i] = normalize(map[string]any(e)).(map[string]any)
			}
			out[suffix] = entries
		}
		y.Handles[prefix] = out
	}
	return y
}

// normalize converts YAML- and JSON-decoded values into the shapes the
// store works with: string-keyed maps, []any lists and plain numbers.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = normalize(vv)
		}
		return out
	case domain.Entry:
		return normalize(map[string]any(x))
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = normalize(vv)
		}
		return out
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return v
	}
}

// Package codec converts store snapshots to and from wire formats for the
// import and export endpoints.
package codec

import (
	"io"
	"sort"
	"strings"

	"handlemock/internal/store"
)

// Importer interface for importing handle data from various formats
type Importer interface {
	Parse(r io.Reader) (store.Snapshot, error)
	Format() string
}

// Exporter interface for exporting handle data to various formats
type Exporter interface {
	Export(snap store.Snapshot, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec both imports and exports a format
type Codec interface {
	Importer
	Exporter
}

var codecs = map[string]Codec{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
	"yml":  NewYAMLCodec(),
}

// Lookup returns the codec registered for format
func Lookup(format string) (Codec, bool) {
	c, ok := codecs[strings.ToLower(format)]
	return c, ok
}

// Formats lists the registered format names
func Formats() []string {
	out := make([]string, 0, len(codecs))
	for name := range codecs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

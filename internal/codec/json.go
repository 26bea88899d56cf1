package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"handlemock/internal/loader"
	"handlemock/internal/store"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the MIME type of exported documents
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse imports handle data from JSON
func (c *JSONCodec) Parse(r io.Reader) (store.Snapshot, error) {
	var seed loader.Seed
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return loader.ToSnapshot(&seed)
}

// Export exports handle data to JSON
func (c *JSONCodec) Export(snap store.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(loader.FromSnapshot(snap)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

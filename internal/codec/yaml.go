package codec

import (
	"fmt"
	"io"

	"handlemock/internal/loader"
	"handlemock/internal/store"
)

// YAMLCodec handles YAML import/export in the seed file format
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exported documents
func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// Parse imports handle data from YAML
func (c *YAMLCodec) Parse(r io.Reader) (store.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML: %w", err)
	}
	return loader.ParseYAML(data)
}

// Export exports handle data to YAML
func (c *YAMLCodec) Export(snap store.Snapshot, w io.Writer) error {
	data, err := loader.ExportYAML(snap)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return nil
}

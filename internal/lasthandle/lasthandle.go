// Package lasthandle reads and writes the last_handle.json marker file used
// by client test suites to find the most recently minted handle.
package lasthandle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultFile is the marker file name, relative to the working directory
const DefaultFile = "last_handle.json"

type marker struct {
	Handle string `json:"handle"`
}

// Read returns the handle stored in path. A missing file is not an error
// and yields "".
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	var m marker
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return m.Handle, nil
}

// Write atomically replaces path with a marker for handle.
func Write(path, handle string) error {
	data, err := json.Marshal(marker{Handle: handle})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".last_handle-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

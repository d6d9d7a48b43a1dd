// Package export reads bookmark export files and maps them to domain
// bookmarks.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of a bookmarks export YAML file
type Loader struct {
	filePath string
}

// NewLoader creates a new export loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the export file. Unknown keys are rejected so that
// typos do not silently drop data.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read bookmarks file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an export document.
func Parse(data []byte) (File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return f, nil
}

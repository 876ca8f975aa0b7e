package edl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the codec from a file extension; anything but .yaml/.yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Parse decodes and validates an EDL.
func Parse(data []byte, format Format) (*EDL, error) {
	var e EDL
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &e)
	default:
		err = json.Unmarshal(data, &e)
	}
	if err != nil {
		return nil, fmt.Errorf("decode edl: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Marshal encodes e in the given format.
func Marshal(e *EDL, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(e)
	}
	return json.MarshalIndent(e, "", "  ")
}

// ReadFile reads an EDL from a JSON or YAML file
func ReadFile(path string) (*EDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return e, nil
}

// WriteFile writes an EDL to a JSON or YAML file
func WriteFile(e *EDL, path string) error {
	data, err := Marshal(e, FormatFor(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

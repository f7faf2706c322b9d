package flow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a definition file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; anything other
// than .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode unmarshals data into target using format.
func Decode(data []byte, format Format, target any) error {
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode JSON: %w", err)
		}
	}
	return nil
}

// Parse decodes a flow definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var definition Definition
	if err := Decode(data, format, &definition); err != nil {
		return nil, fmt.Errorf("invalid flow definition: %w", err)
	}
	return &definition, nil
}

// LoadFile reads and decodes a flow definition file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	definition, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return definition, nil
}

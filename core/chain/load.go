package chain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leofalp/aigoflow/core/flow"
)

// File is the on-disk form of a chain. Each entry either embeds its flow or
// points to a flow file relative to the chain file.
type File struct {
	Flows []FileEntry `json:"flows" yaml:"flows"`
}

// FileEntry is one flow of a chain file.
type FileEntry struct {
	ID     string           `json:"id" yaml:"id"`
	Flow   *flow.Definition `json:"flow,omitempty" yaml:"flow,omitempty"`
	File   string           `json:"file,omitempty" yaml:"file,omitempty"`
	Inputs map[string]any   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Parse decodes a chain file. Referenced flow files are resolved against baseDir.
func Parse(data []byte, format flow.Format, baseDir string) ([]Item, error) {
	var file File
	if err := flow.Decode(data, format, &file); err != nil {
		return nil, fmt.Errorf("invalid chain definition: %w", err)
	}

	items := make([]Item, 0, len(file.Flows))
	seen := make(map[string]bool, len(file.Flows))
	for i, entry := range file.Flows {
		if entry.ID == "" {
			return nil, fmt.Errorf("chain entry %d has no id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate chain entry id %q", entry.ID)
		}
		seen[entry.ID] = true

		definition := entry.Flow
		if definition == nil {
			if entry.File == "" {
				return nil, fmt.Errorf("chain entry %q needs either flow or file", entry.ID)
			}
			path := entry.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			loaded, err := flow.LoadFile(path)
			if err != nil {
				return nil, fmt.Errorf("chain entry %q: %w", entry.ID, err)
			}
			definition = loaded
		}
		items = append(items, Item{ID: entry.ID, Flow: definition, Inputs: entry.Inputs})
	}
	return items, nil
}

// LoadFile reads a chain file.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to read chain file: %w", err)
	}
	return Parse(data, flow.FormatFromPath(path), filepath.Dir(path))
}

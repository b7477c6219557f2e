// Package staticfile loads fixed record definitions from a YAML file.
// Static records are published alongside container records and flow through
// the same reconciliation path under synthetic IDs.
package staticfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of the static records file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the records file.
func (l *Loader) Load() (*RecordsConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read static records file: %w", err)
	}

	var config RecordsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse static records yaml: %w", err)
	}

	return &config, nil
}

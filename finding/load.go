package finding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads findings from a JSON or YAML file. The file holds either
// a list of findings or an object with a "findings" list.
func LoadFile(path string) ([]Finding, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("findings file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read findings file: %w", err)
	}

	var unmarshal func([]byte, any) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		unmarshal = json.Unmarshal
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("unsupported findings format: %s (supported: .json, .yaml, .yml)", ext)
	}

	var findings []Finding
	if err := unmarshal(data, &findings); err != nil {
		var doc struct {
			Findings []Finding `json:"findings" yaml:"findings"`
		}
		if derr := unmarshal(data, &doc); derr != nil {
			return nil, fmt.Errorf("failed to parse findings file: %w", err)
		}
		findings = doc.Findings
	}

	for i := range findings {
		if err := findings[i].Validate(); err != nil {
			return nil, fmt.Errorf("finding %d (%s): %w", i, findings[i].ID, err)
		}
	}
	return findings, nil
}

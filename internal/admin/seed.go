package admin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isYAML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "yaml") || strings.Contains(ct, "yml")
}

// yamlToJSON re-encodes a YAML document as JSON.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(doc)
}

// LoadSeedFile loads initial state from a JSON or YAML fixture. YAML is
// detected by the .yaml or .yml extension.
func LoadSeedFile(state StateStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return fmt.Errorf("parsing seed file %s: %w", path, err)
		}
	}
	if err := state.LoadState(data); err != nil {
		return fmt.Errorf("loading seed file %s: %w", path, err)
	}
	return nil
}

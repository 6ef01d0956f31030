package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nixlim/presetdeck/internal/contract"
	"gopkg.in/yaml.v3"
)

type catalogueFile struct {
	Presets []contract.PresetDefinition `json:"presets"`
}

// LoadFile reads additional preset definitions from a YAML file. The file is
// converted to JSON first so the tagged filter tree decodes through the same
// path the backend uses.
func LoadFile(path string) ([]contract.PresetDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]contract.PresetDefinition, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalogue: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	js, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting catalogue to json: %w", err)
	}

	var f catalogueFile
	if err := json.Unmarshal(js, &f); err != nil {
		return nil, fmt.Errorf("decoding catalogue: %w", err)
	}
	return f.Presets, nil
}

// Build returns the built-in catalogue extended with the presets in path.
// An empty path yields the built-ins alone.
func Build(path string) (*Catalogue, error) {
	defs := Builtin()
	if path != "" {
		extra, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	return NewCatalogue(defs...)
}

package rules

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Document is the on-disk shape of a preset library: a list of presets
// plus the default selection applied to projects without one.
type Document struct {
	Presets         []*Preset `yaml:"presets" validate:"min=1,dive"`
	DefaultPresetID string    `yaml:"active_default_preset_id"`
}

// Parse decodes and exhaustively validates a preset document. Every
// invalid preset is reported, not just the first.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode preset document: %w", err)
	}

	var problems error
	if len(doc.Presets) == 0 {
		problems = multierr.Append(problems, fmt.Errorf("document has no presets"))
	}
	seen := make(map[string]bool)
	for i, preset := range doc.Presets {
		if err := validate.Struct(preset); err != nil {
			problems = multierr.Append(problems, fmt.Errorf("preset %d (%s): %w", i, preset.ID, err))
			continue
		}
		if seen[preset.ID] {
			problems = multierr.Append(problems, fmt.Errorf("preset %d: duplicate ID %q", i, preset.ID))
		}
		seen[preset.ID] = true
		for j, r := range preset.Duct.FillByConductors {
			if r.Min > r.Max {
				problems = multierr.Append(problems,
					fmt.Errorf("preset %s: duct fill range %d inverted (min %d > max %d)", preset.ID, j, r.Min, r.Max))
			}
		}
	}
	if doc.DefaultPresetID != "" && !seen[doc.DefaultPresetID] {
		problems = multierr.Append(problems,
			fmt.Errorf("default preset %q not present in document", doc.DefaultPresetID))
	}
	if problems != nil {
		return nil, fmt.Errorf("validate preset document: %w", problems)
	}
	return &doc, nil
}

// LoadFile reads and parses a preset document from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset document %s: %w", path, err)
	}
	return Parse(data)
}

// BuildRegistry creates a registry from a document, activating the
// document's default preset (or the first preset when none is named).
func (d *Document) BuildRegistry() (*Registry, error) {
	reg := NewRegistry()
	for _, preset := range d.Presets {
		if err := reg.Add(preset); err != nil {
			return nil, err
		}
	}
	active := d.DefaultPresetID
	if active == "" {
		active = d.Presets[0].ID
	}
	if err := reg.SetActive(active); err != nil {
		return nil, err
	}
	return reg, nil
}

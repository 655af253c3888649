package catalog

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Parse decodes and validates a catalog document. All validation
// problems are collected and reported together.
func Parse(data []byte) (*Catalog, error) {
	var doc Catalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	var problems error
	for i, entry := range doc.Entries {
		if entry.UsableArea() <= 0 {
			problems = multierr.Append(problems,
				fmt.Errorf("entry %d (%s): no usable area derivable from geometry", i, entry.ID))
		}
	}
	for i, cable := range doc.Cables {
		if cable.Area() <= 0 {
			problems = multierr.Append(problems,
				fmt.Errorf("cable %d (%s): no area derivable from spec", i, cable.ID))
		}
	}
	if problems != nil {
		return nil, fmt.Errorf("validate catalog %s: %w", doc.ID, problems)
	}

	if err := doc.reindex(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

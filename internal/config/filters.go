package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// LoadFilters decodes a YAML filter file into v. Unknown keys are rejected
// so a misspelt filter cannot silently widen a search.
func LoadFilters(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read filters: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("parse filters %s: %w", path, err)
	}
	return nil
}

package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML mapping document from the given path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}

	Normalize(&doc)

	return &doc, nil
}

// Normalize fills in the defaults of optional fields: the version, the
// entry name and the ids of rules that have none.
func Normalize(doc *Document) {
	if doc.Version == "" {
		doc.Version = "1"
	}

	if doc.Name == "" {
		doc.Name = doc.Namespace
	}

	ids := NewStem("rule")
	for _, r := range doc.Rules {
		ids.Reserve(r.ID)
	}

	for i := range doc.Rules {
		if doc.Rules[i].ID == "" {
			doc.Rules[i].ID = ids.Next()
		}
	}
}

// Marshal serializes a Document to YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

// WriteFile writes a Document to the given path.
func WriteFile(doc *Document, path string) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write mapping file %s: %w", path, err)
	}

	return nil
}

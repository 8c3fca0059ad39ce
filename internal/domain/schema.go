package domain

import (
	"encoding/json"
	"fmt"
)

// Schema describes the shape the external tool must conform its structured
// output to. It serializes to a standard JSON Schema object and doubles as a
// loose validator for returned payloads.
type Schema struct {
	Title      string              `json:"title,omitempty"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single field in a Schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// schemaDocument is the wire form handed to the CLI via --json-schema.
type schemaDocument struct {
	Type       string              `json:"type"`
	Title      string              `json:"title,omitempty"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Document serializes the schema to a JSON Schema object document.
func (s Schema) Document() ([]byte, error) {
	if len(s.Properties) == 0 {
		return nil, fmt.Errorf("schema has no properties")
	}
	doc := schemaDocument{
		Type:       "object",
		Title:      s.Title,
		Properties: s.Properties,
		Required:   s.Required,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// MissingRequired returns the required field names absent from payload.
// Validation is intentionally loose: present-but-mistyped values pass.
func (s Schema) MissingRequired(payload map[string]any) []string {
	var missing []string
	for _, name := range s.Required {
		if _, ok := payload[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ParseSchema reads a JSON Schema object document into a Schema.
func ParseSchema(data []byte) (Schema, error) {
	var doc schemaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Schema{}, fmt.Errorf("parse schema: %w", err)
	}
	if doc.Type != "" && doc.Type != "object" {
		return Schema{}, fmt.Errorf("unsupported schema type %q", doc.Type)
	}
	if len(doc.Properties) == 0 {
		return Schema{}, fmt.Errorf("schema has no properties")
	}
	return Schema{
		Title:      doc.Title,
		Properties: doc.Properties,
		Required:   doc.Required,
	}, nil
}

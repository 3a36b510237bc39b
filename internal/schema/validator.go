// Package schema provides JSON Schema validation with custom formats.
package schema

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrInvalid wraps every document that fails validation.
var ErrInvalid = errors.New("validation failed")

// Validator validates data against a compiled JSON Schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a validator from schema bytes. Custom formats are
// registered first.
func NewValidator(schemaData []byte) (*Validator, error) {
	RegisterCustomFormats()
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaData))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

func embedded(name string) (*Validator, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	return NewValidator(data)
}

// TickRequestValidator validates inbound tick payloads.
func TickRequestValidator() (*Validator, error) { return embedded("tick_request.json") }

// EventValidator validates the event envelope.
func EventValidator() (*Validator, error) { return embedded("event.json") }

// Validate validates a map[string]interface{} against the schema.
func (v *Validator) Validate(data map[string]interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, errs)
	}
	return nil
}

// ValidateBytes validates raw JSON bytes.
func (v *Validator) ValidateBytes(data []byte) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.Validate(obj)
}

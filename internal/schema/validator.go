// Package schema validates the JSON documents that cross alacrity's trust
// boundaries: benchmark presets loaded from disk and result payloads headed
// for the leaderboard.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks documents against JSON schemas, caching compiled schemas
// so repeated validations of the same shape stay cheap.
type Validator struct {
	cache sync.Map // schema JSON -> *gojsonschema.Schema
}

// NewValidator returns an empty Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks doc against schemaData. schemaData may be a JSON string, a
// map, or a struct that marshals to a schema.
func (v *Validator) Validate(schemaData any, doc string) error {
	schema, err := v.compiled(schemaData)
	if err != nil {
		return fmt.Errorf("invalid schema definition: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("validation failed to run: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed:\n- %s", joinErrors(errs))
}

func (v *Validator) compiled(schemaData any) (*gojsonschema.Schema, error) {
	var key string
	switch s := schemaData.(type) {
	case string:
		key = s
	default:
		b, err := json.Marshal(schemaData)
		if err != nil {
			return nil, err
		}
		key = string(b)
	}

	if cached, ok := v.cache.Load(key); ok {
		return cached.(*gojsonschema.Schema), nil
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(key))
	if err != nil {
		return nil, err
	}
	v.cache.Store(key, schema)
	return schema, nil
}

// joinErrors renders at most three validation errors; a deeply wrong
// document should not flood the terminal.
func joinErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	truncated := ""
	if len(errs) > 3 {
		truncated = fmt.Sprintf("\n... and %d more", len(errs)-3)
		errs = errs[:3]
	}
	out := ""
	for i, e := range errs {
		if i > 0 {
			out += "\n- "
		}
		out += e
	}
	return out + truncated
}

var defaultValidator = NewValidator()

// ValidatePreset checks a benchmark preset document.
func ValidatePreset(doc string) error {
	return defaultValidator.Validate(PresetSchema, doc)
}

// ValidateSubmission checks a leaderboard submission payload.
func ValidateSubmission(doc string) error {
	return defaultValidator.Validate(SubmissionSchema, doc)
}

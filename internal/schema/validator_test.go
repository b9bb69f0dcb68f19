package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePreset_Valid(t *testing.T) {
	doc := `{
		"name": "pp512",
		"description": "prompt processing, 512 tokens",
		"prompt_tokens": 512,
		"gen_tokens": 1,
		"repetitions": 3
	}`

	err := ValidatePreset(doc)
	assert.NoError(t, err)
}

func TestValidatePreset_MissingRequired(t *testing.T) {
	doc := `{"name": "pp512"}`

	err := ValidatePreset(doc)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prompt_tokens")
}

func TestValidatePreset_UnknownField(t *testing.T) {
	doc := `{"name": "x", "prompt_tokens": 8, "gen_tokens": 8, "tokens": 99}`

	err := ValidatePreset(doc)
	assert.Error(t, err)
}

func TestValidatePreset_BadTypes(t *testing.T) {
	doc := `{"name": "x", "prompt_tokens": "lots", "gen_tokens": 8}`

	err := ValidatePreset(doc)
	assert.Error(t, err)
}

func TestValidateSubmission_Valid(t *testing.T) {
	doc := `{
		"id": "8b33f8a2-5a9c-4c59-9a75-9f3c7e1f2ab3",
		"model": "qwen2.5-7b-instruct",
		"quant": "Q4_K_M",
		"preset": "tg128",
		"prompt_tps": 412.7,
		"gen_tps": 31.2,
		"device": {"os": "linux", "arch": "arm64", "cpus": 8}
	}`

	err := ValidateSubmission(doc)
	assert.NoError(t, err)
}

func TestValidateSubmission_NegativeThroughput(t *testing.T) {
	doc := `{
		"id": "x",
		"model": "m",
		"preset": "tg128",
		"prompt_tps": -1,
		"gen_tps": 5,
		"device": {"os": "linux", "arch": "arm64", "cpus": 8}
	}`

	err := ValidateSubmission(doc)
	assert.Error(t, err)
}

func TestValidateSubmission_DeviceIncomplete(t *testing.T) {
	doc := `{
		"id": "x",
		"model": "m",
		"preset": "tg128",
		"prompt_tps": 1,
		"gen_tps": 5,
		"device": {"os": "linux"}
	}`

	err := ValidateSubmission(doc)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "arch")
}

func TestValidator_CachesCompiledSchemas(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(PresetSchema, `{"name":"a","prompt_tokens":1,"gen_tokens":1}`))
	assert.NoError(t, v.Validate(PresetSchema, `{"name":"b","prompt_tokens":2,"gen_tokens":2}`))

	cached := 0
	v.cache.Range(func(_, _ any) bool {
		cached++
		return true
	})
	assert.Equal(t, 1, cached)
}

func TestValidator_RejectsBrokenSchema(t *testing.T) {
	v := NewValidator()
	err := v.Validate(`{"type": ["not", 42`, `{}`)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schema definition")
}

func TestValidator_NotJSONDocument(t *testing.T) {
	err := ValidatePreset("definitely not json")
	assert.Error(t, err)
}

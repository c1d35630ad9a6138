package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/model.schema.json
var modelSchemaJSON []byte

//go:embed schemas/state.schema.json
var stateSchemaJSON []byte

var (
	schemaOnce  sync.Once
	schemaErr   error
	modelSchema *jsonschema.Schema
	stateSchema *jsonschema.Schema
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("model.schema.json", bytes.NewReader(modelSchemaJSON)); err != nil {
		schemaErr = err
		return
	}
	if err := c.AddResource("state.schema.json", bytes.NewReader(stateSchemaJSON)); err != nil {
		schemaErr = err
		return
	}
	if modelSchema, schemaErr = c.Compile("model.schema.json"); schemaErr != nil {
		return
	}
	stateSchema, schemaErr = c.Compile("state.schema.json")
}

func validate(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return s.Validate(v)
}

// ValidateModel checks a raw model message against the embedded schema.
func ValidateModel(raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	return validate(modelSchema, raw)
}

// ValidateState checks a raw state message (one frame) against the embedded schema.
func ValidateState(raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	return validate(stateSchema, raw)
}

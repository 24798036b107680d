package matching

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a compiled JSON Schema (draft 2020-12) expectation on a request body.
type Schema struct {
	schema *jsonschema.Schema
}

// CompileSchema compiles schema, which may be JSON text (string or []byte)
// or a structured value that encodes to a JSON Schema document.
func CompileSchema(schema any) (*Schema, error) {
	var doc []byte
	switch v := schema.(type) {
	case string:
		doc = []byte(v)
	case []byte:
		doc = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: schema: %v", ErrInvalidExpression, err)
		}
		doc = data
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrInvalidExpression, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrInvalidExpression, err)
	}
	return &Schema{schema: compiled}, nil
}

// Validate checks body against the schema.
func (s *Schema) Validate(body []byte) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return fmt.Errorf("request body is not valid JSON: %v", err)
	}

	if err := s.schema.Validate(data); err != nil {
		return fmt.Errorf("request body does not match schema: %s", schemaMessage(err))
	}
	return nil
}

// schemaMessage flattens nested validation causes into one line.
func schemaMessage(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}

	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return strings.Join(msgs, "; ")
}

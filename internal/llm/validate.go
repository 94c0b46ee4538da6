package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one schema failure, located by a JSON pointer into the
// checked document.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string { return v.Path + ": " + v.Message }

// CompileSchema compiles a schema given as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// Check validates doc and flattens the failures into leaf violations. A doc
// that is not JSON is an error, not a violation.
func Check(schema *jsonschema.Schema, doc []byte) ([]Violation, error) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, err
	}
	err := schema.Validate(v)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	var out []Violation
	for _, e := range ve.BasicOutput().Errors {
		// intermediate nodes only point at their causes
		if e.Error == "" || strings.HasPrefix(e.Error, "doesn't validate with") {
			continue
		}
		path := e.InstanceLocation
		if path == "" {
			path = "/"
		}
		out = append(out, Violation{Path: path, Message: e.Error})
	}
	if len(out) == 0 {
		out = append(out, Violation{Path: "/", Message: ve.Message})
	}
	return out, nil
}

package schema

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// resourceURL names the in-memory schema resource handed to the compiler.
const resourceURL = "datatect-schema.json"

// Validator is a compiled schema. It is immutable and safe for concurrent use.
type Validator struct {
	compiled *jsonschema.Schema
}

// New strictifies node and compiles the result. A schema nested deeper than
// MaxDepth is rejected with a CompileError wrapping ErrTooDeep.
func New(node any) (*Validator, error) {
	strict, err := StrictifyChecked(node)
	if err != nil {
		return nil, &CompileError{Err: err}
	}
	return Compile(strict)
}

// Compile builds a Validator from a schema description as-is, under JSON
// Schema draft 7. The node is not modified.
func Compile(node any) (*Validator, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return nil, &CompileError{Err: fmt.Errorf("encode schema: %w", err)}
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(resourceURL, bytes.NewReader(data)); err != nil {
		return nil, &CompileError{Err: err}
	}

	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, &CompileError{Err: err}
	}

	return &Validator{compiled: compiled}, nil
}

// IsValid reports whether doc satisfies the schema.
func (v *Validator) IsValid(doc any) bool {
	return v.compiled.Validate(doc) == nil
}

// Validate returns every error the evaluator found in doc, or nil when doc is
// valid.
func (v *Validator) Validate(doc any) []ValidationError {
	err := v.compiled.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		// Values the evaluator cannot classify (e.g. Go types with no JSON
		// equivalent) are reported against the root.
		return []ValidationError{{Message: err.Error()}}
	}

	var out []ValidationError
	collectLeaves(ve, &out)
	return out
}

// collectLeaves flattens the evaluator's error tree. Inner nodes only
// summarise their causes, so only leaves are kept.
func collectLeaves(ve *jsonschema.ValidationError, out *[]ValidationError) {
	if len(ve.Causes) == 0 {
		*out = append(*out, ValidationError{
			Message:      ve.Message,
			InstancePath: splitPointer(ve.InstanceLocation),
		})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

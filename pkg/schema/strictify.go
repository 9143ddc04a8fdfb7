package schema

import (
	"fmt"
	"sort"
)

// MaxDepth bounds how deep Strictify descends. Nodes nested deeper than this
// are returned unchanged.
const MaxDepth = 256

// ErrTooDeep reports a schema with subschemas nested deeper than MaxDepth.
var ErrTooDeep = fmt.Errorf("schema nested deeper than %d levels", MaxDepth)

// Schema keywords examined by Strictify.
const (
	keyType                 = "type"
	keyProperties           = "properties"
	keyItems                = "items"
	keyOneOf                = "oneOf"
	keyRequired             = "required"
	keyAdditionalProperties = "additionalProperties"
)

// Strictify rewrites a schema description so that every object schema reachable
// through properties, items or oneOf rejects unknown keys and requires every
// declared property. The tree is modified in place and the same root is
// returned.
//
// Only properties, items and oneOf are followed. Subschemas reachable solely
// through anyOf, allOf, $ref, patternProperties or other keywords are left
// as written. Nodes of unexpected shape pass through unchanged. Subschemas
// below MaxDepth are left open; use StrictifyChecked to reject such schemas.
func Strictify(node any) any {
	strictify(node, 0)
	return node
}

// StrictifyChecked is Strictify, failing with ErrTooDeep when part of the
// tree lies below MaxDepth and was left open.
func StrictifyChecked(node any) (any, error) {
	if !strictify(node, 0) {
		return node, ErrTooDeep
	}
	return node, nil
}

// strictify reports false when it stopped at a schema node below MaxDepth.
func strictify(node any, depth int) bool {
	obj, ok := node.(map[string]any)
	if !ok {
		return true
	}
	if depth > MaxDepth {
		return false
	}

	complete := true

	switch t, _ := obj[keyType].(string); t {
	case "object":
		props, _ := obj[keyProperties].(map[string]any)

		obj[keyAdditionalProperties] = false
		obj[keyRequired] = requiredKeys(props)

		for _, name := range sortedKeys(props) {
			complete = strictify(props[name], depth+1) && complete
		}
	case "array":
		if items, ok := obj[keyItems]; ok {
			complete = strictify(items, depth+1) && complete
		}
	}

	if branches, ok := obj[keyOneOf].([]any); ok {
		for _, branch := range branches {
			complete = strictify(branch, depth+1) && complete
		}
	}
	return complete
}

// requiredKeys returns the property names in lexical order as a JSON array.
func requiredKeys(props map[string]any) []any {
	keys := sortedKeys(props)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

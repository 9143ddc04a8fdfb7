package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) any {
	t.Helper()
	node, err := Parse([]byte(src))
	require.NoError(t, err)
	return node
}

func TestStrictify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "object gains required and additionalProperties",
			in:   `{"type": "object", "properties": {"foo": {"type": "string"}, "bar": {"type": "integer"}}}`,
			want: `{"type": "object", "additionalProperties": false, "required": ["bar", "foo"],
				"properties": {"foo": {"type": "string"}, "bar": {"type": "integer"}}}`,
		},
		{
			name: "object without properties",
			in:   `{"type": "object"}`,
			want: `{"type": "object", "additionalProperties": false, "required": []}`,
		},
		{
			name: "properties of the wrong shape count as empty",
			in:   `{"type": "object", "properties": [1, 2]}`,
			want: `{"type": "object", "properties": [1, 2], "additionalProperties": false, "required": []}`,
		},
		{
			name: "existing required is replaced",
			in:   `{"type": "object", "required": ["gone"], "additionalProperties": true, "properties": {"a": {}}}`,
			want: `{"type": "object", "required": ["a"], "additionalProperties": false, "properties": {"a": {}}}`,
		},
		{
			name: "nested object",
			in: `{"type": "object", "properties": {"bar": {"type": "object", "properties": {"biz": {"type": "boolean"}}}}}`,
			want: `{"type": "object", "additionalProperties": false, "required": ["bar"], "properties": {
				"bar": {"type": "object", "additionalProperties": false, "required": ["biz"],
					"properties": {"biz": {"type": "boolean"}}}}}`,
		},
		{
			name: "array items",
			in:   `{"type": "array", "items": {"type": "object", "properties": {"foo": {"type": "string"}}}}`,
			want: `{"type": "array", "items": {"type": "object", "additionalProperties": false, "required": ["foo"],
				"properties": {"foo": {"type": "string"}}}}`,
		},
		{
			name: "array without items",
			in:   `{"type": "array"}`,
			want: `{"type": "array"}`,
		},
		{
			name: "oneOf without type",
			in:   `{"oneOf": [{"type": "null"}, {"type": "object", "properties": {"foo": {"type": "string"}}}]}`,
			want: `{"oneOf": [{"type": "null"}, {"type": "object", "additionalProperties": false, "required": ["foo"],
				"properties": {"foo": {"type": "string"}}}]}`,
		},
		{
			name: "oneOf on an object node",
			in:   `{"type": "object", "oneOf": [{"type": "object"}]}`,
			want: `{"type": "object", "additionalProperties": false, "required": [],
				"oneOf": [{"type": "object", "additionalProperties": false, "required": []}]}`,
		},
		{
			name: "non-string type is ignored but oneOf still processed",
			in:   `{"type": ["object", "null"], "properties": {"a": {}}, "oneOf": [{"type": "object"}]}`,
			want: `{"type": ["object", "null"], "properties": {"a": {}},
				"oneOf": [{"type": "object", "additionalProperties": false, "required": []}]}`,
		},
		{
			name: "properties without object type are not touched",
			in:   `{"properties": {"a": {"type": "object"}}}`,
			want: `{"properties": {"a": {"type": "object"}}}`,
		},
		{
			name: "unmodeled keywords are not followed",
			in: `{"anyOf": [{"type": "object"}], "allOf": [{"type": "object"}],
				"patternProperties": {"^x": {"type": "object"}}, "definitions": {"d": {"type": "object"}},
				"$ref": "#/definitions/d"}`,
			want: `{"anyOf": [{"type": "object"}], "allOf": [{"type": "object"}],
				"patternProperties": {"^x": {"type": "object"}}, "definitions": {"d": {"type": "object"}},
				"$ref": "#/definitions/d"}`,
		},
		{
			name: "primitive node",
			in:   `{"type": "string", "minLength": 2}`,
			want: `{"type": "string", "minLength": 2}`,
		},
		{
			name: "boolean schema",
			in:   `true`,
			want: `true`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Strictify(mustParse(t, tt.in))
			want := mustParse(t, tt.want)
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Strictify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStrictify_Idempotent(t *testing.T) {
	schemas := []string{
		`{"type": "object", "properties": {"foo": {"type": "string"}}}`,
		`{"type": "array", "items": {"type": "object", "properties": {"a": {"type": "array", "items": {"type": "object"}}}}}`,
		`{"oneOf": [{"type": "null"}, {"type": "object", "properties": {"foo": {"oneOf": [{"type": "object"}]}}}]}`,
		`{"type": "object", "required": ["x"], "properties": {}}`,
	}

	for _, src := range schemas {
		once := Strictify(mustParse(t, src))
		twice := Strictify(Strictify(mustParse(t, src)))
		if diff := cmp.Diff(once, twice, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("Strictify not idempotent for %s (-once +twice):\n%s", src, diff)
		}
	}
}

func TestStrictify_RequiredTracksTransformTime(t *testing.T) {
	node := mustParse(t, `{"type": "object", "properties": {"a": {}}}`).(map[string]any)
	Strictify(node)

	node["properties"].(map[string]any)["b"] = map[string]any{}

	assert.Equal(t, []any{"a"}, node["required"])
}

func TestStrictify_DepthBound(t *testing.T) {
	leaf := map[string]any{"type": "object"}
	var root any = leaf
	for i := 0; i < MaxDepth+10; i++ {
		root = map[string]any{"type": "array", "items": root}
	}

	assert.NotPanics(t, func() { Strictify(root) })
	_, touched := leaf["additionalProperties"]
	assert.False(t, touched, "nodes beyond MaxDepth must be left unchanged")
}

func TestStrictifyChecked(t *testing.T) {
	deepLeaf := map[string]any{"type": "object"}
	var deep any = deepLeaf
	for range MaxDepth + 1 {
		deep = map[string]any{"type": "object", "properties": map[string]any{"child": deep}}
	}
	_, err := StrictifyChecked(deep)
	assert.ErrorIs(t, err, ErrTooDeep)
	_, touched := deepLeaf["additionalProperties"]
	assert.False(t, touched)

	// scalars below the bound are not schema nodes and never overflow
	var shallow any = map[string]any{"type": "string"}
	for range MaxDepth {
		shallow = map[string]any{"oneOf": []any{shallow, "junk"}}
	}
	got, err := StrictifyChecked(shallow)
	require.NoError(t, err)
	assert.Equal(t, shallow, got)
}

func TestStrictify_InPlace(t *testing.T) {
	node := mustParse(t, `{"type": "object"}`)
	got := Strictify(node)

	assert.Equal(t, false, node.(map[string]any)["additionalProperties"])
	assert.Equal(t, node, got)
}

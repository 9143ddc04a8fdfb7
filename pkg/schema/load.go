package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a schema description from a YAML or JSON file.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	node, err := Parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return node, nil
}

// Parse decodes a schema description. JSON is accepted as a subset of YAML.
func Parse(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return normalize(raw)
}

// DecodeDocument decodes JSON text into the value shape the Validator expects.
// Numbers are kept as json.Number so integers beyond 2^53 compare exactly.
func DecodeDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}

// LoadDocument reads and decodes a JSON document file.
func LoadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return doc, nil
}

// normalize converts YAML-decoded values into JSON-like values: every mapping
// becomes map[string]any. Non-string mapping keys are rejected because JSON
// Schema has no use for them.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, vv := range t {
			n, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("mapping key %v is not a string", k)
			}
			n, err := normalize(vv)
			if err != nil {
				return nil, err
			}
			out[ks] = n
		}
		return out, nil
	case []any:
		for i := range t {
			n, err := normalize(t[i])
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}

// MarshalJSON encodes a schema description as indented JSON.
func MarshalJSON(node any) ([]byte, error) {
	return json.MarshalIndent(node, "", "  ")
}

// MarshalYAML encodes a schema description as YAML.
func MarshalYAML(node any) ([]byte, error) {
	return yaml.Marshal(node)
}

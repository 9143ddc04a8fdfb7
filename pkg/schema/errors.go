package schema

import (
	"fmt"
	"strings"
)

// ValidationError describes one way a document failed its schema.
type ValidationError struct {
	Message string
	// InstancePath locates the failing value: object keys and array indices,
	// outermost first. Empty means the document root.
	InstancePath []string
}

// Pointer renders InstancePath as an RFC 6901 JSON Pointer ("" for the root).
func (e ValidationError) Pointer() string {
	if len(e.InstancePath) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, seg := range e.InstancePath {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(seg))
	}
	return b.String()
}

func (e ValidationError) Error() string {
	loc := e.Pointer()
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s at %s", e.Message, loc)
}

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// splitPointer turns a JSON Pointer into its unescaped reference tokens.
func splitPointer(ptr string) []string {
	if ptr == "" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = pointerUnescaper.Replace(p)
	}
	return parts
}

// CompileError is returned when a schema description is rejected by the
// evaluator. It is not recoverable: the schema itself is broken.
type CompileError struct {
	Err error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid schema: %v", e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// LoadError reports a schema or document file that could not be read or
// decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to decode: %v", e.Err)
	}
	return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

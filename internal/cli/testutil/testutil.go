// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/leapstack-labs/datatect/internal/cli/output"
	"github.com/leapstack-labs/datatect/pkg/schema"
)

// Schema is a small schema used across CLI tests. After hardening, documents
// must carry exactly foo (integer) and bar (an object with exactly baz and
// biz).
const Schema = `type: object
properties:
  foo:
    type: integer
  bar:
    type: object
    properties:
      baz: {type: string}
      biz: {type: boolean}
`

// Documents satisfying and violating Schema.
const (
	ValidDoc   = `{"foo": 1, "bar": {"baz": "x", "biz": true}}`
	InvalidDoc = `{"foo": 1, "bar": {"baz": "x", "biz": "yes"}}`
	ExtraDoc   = `{"foo": 1, "bar": {"baz": "x", "biz": true}, "extra": 1}`
)

// SetupTestProject creates a temporary directory holding schema.yaml and the
// given files, and returns its path.
func SetupTestProject(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()
	WriteFile(t, tmpDir, "schema.yaml", Schema)
	for name, content := range files {
		WriteFile(t, tmpDir, name, content)
	}
	return tmpDir
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// ScrollServer is a fake search backend serving a fixed set of documents
// through the scroll endpoints.
type ScrollServer struct {
	*httptest.Server

	mu       sync.Mutex
	docs     []map[string]any
	size     int
	seq      int
	offsets  map[string]int
	cleared  []string
	failOn   int
	requests int
}

// NewScrollServer starts a backend for index serving sources in order. The
// _id of document i is "doc-i".
func NewScrollServer(t *testing.T, index string, sources []string) *ScrollServer {
	t.Helper()

	s := &ScrollServer{offsets: make(map[string]int)}
	for i, src := range sources {
		doc, err := schema.DecodeDocument([]byte(src))
		if err != nil {
			t.Fatalf("bad document %d: %v", i, err)
		}
		s.docs = append(s.docs, map[string]any{
			"_index":  index,
			"_id":     fmt.Sprintf("doc-%d", i),
			"_source": doc,
		})
	}

	r := chi.NewRouter()
	r.Post("/"+index+"/_search", s.handleOpen)
	r.Post("/_search/scroll", s.handleAdvance)
	r.Delete("/_search/scroll", s.handleClear)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// FailOnRequest makes the n-th request (1-based) answer 500.
func (s *ScrollServer) FailOnRequest(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = n
}

// Cleared returns the cursors released by clients.
func (s *ScrollServer) Cleared() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cleared...)
}

func (s *ScrollServer) failing(w http.ResponseWriter) bool {
	s.requests++
	if s.failOn > 0 && s.requests == s.failOn {
		http.Error(w, `{"error":"search_phase_execution_exception"}`, http.StatusInternalServerError)
		return true
	}
	return false
}

func (s *ScrollServer) handleOpen(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w) {
		return
	}

	var body struct {
		Size int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Size <= 0 {
		http.Error(w, "bad size", http.StatusBadRequest)
		return
	}
	s.size = body.Size
	s.page(w, 0)
}

func (s *ScrollServer) handleAdvance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing(w) {
		return
	}

	var body struct {
		ScrollID string `json:"scroll_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	offset, ok := s.offsets[body.ScrollID]
	if !ok {
		http.Error(w, "unknown cursor", http.StatusNotFound)
		return
	}
	s.page(w, offset)
}

func (s *ScrollServer) handleClear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body struct {
		ScrollID []string `json:"scroll_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	s.cleared = append(s.cleared, body.ScrollID...)
	w.WriteHeader(http.StatusOK)
}

// page writes the documents from offset on. Callers hold s.mu.
func (s *ScrollServer) page(w http.ResponseWriter, offset int) {
	end := min(offset+s.size, len(s.docs))
	s.seq++
	cursor := fmt.Sprintf("cursor-%d", s.seq)
	s.offsets[cursor] = end

	hits := s.docs[offset:end]
	if hits == nil {
		hits = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"_scroll_id": cursor,
		"hits":       map[string]any{"hits": hits},
	})
}

// Package testutil provides helpers for CLI tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapgraph/internal/cli/output"
)

// ModelYAML is a small core model: one profile, two classes and a
// stereotype usage.
const ModelYAML = `elements:
  - _type: profile
    package: app
    name: Meta
    stereotypes:
      - value: entity
        sourceInformation: {sourceId: model.pure, startLine: 2, startColumn: 17, endLine: 2, endColumn: 22}
    sourceInformation: {sourceId: model.pure, startLine: 1, startColumn: 1, endLine: 3, endColumn: 1}
  - _type: class
    package: app
    name: Person
    stereotypes:
      - profile: app::Meta
        value: entity
        sourceInformation: {sourceId: model.pure, startLine: 5, startColumn: 3, endLine: 5, endColumn: 15}
        profileSourceInformation: {sourceId: model.pure, startLine: 5, startColumn: 3, endLine: 5, endColumn: 6}
    properties:
      - name: name
        genericType: {rawType: {fullPath: String}}
        multiplicity: {lowerBound: 1, upperBound: 1}
    sourceInformation: {sourceId: model.pure, startLine: 5, startColumn: 1, endLine: 8, endColumn: 1}
  - _type: class
    package: app
    name: Employee
    superTypes:
      - path: app::Person
        sourceInformation: {sourceId: model.pure, startLine: 10, startColumn: 25, endLine: 10, endColumn: 35}
    sourceInformation: {sourceId: model.pure, startLine: 10, startColumn: 1, endLine: 10, endColumn: 40}
`

// StoreYAML is a relational store with one table and a database mapper.
const StoreYAML = `elements:
  - _type: database
    package: store
    name: Main
    schemas:
      - name: app
        tables:
          - name: person
            primaryKey: [id]
            columns:
              - {name: id, type: INTEGER}
              - {name: name, type: VARCHAR(200)}
            sourceInformation: {sourceId: store.pure, startLine: 3, startColumn: 5, endLine: 6, endColumn: 5}
    sourceInformation: {sourceId: store.pure, startLine: 1, startColumn: 1, endLine: 8, endColumn: 1}
  - _type: relationalMapper
    package: store
    name: Prod
    databaseMappers:
      - name: PROD
        databases:
          - path: store::Main
            sourceInformation: {sourceId: store.pure, startLine: 11, startColumn: 5, endLine: 11, endColumn: 15}
    sourceInformation: {sourceId: store.pure, startLine: 10, startColumn: 1, endLine: 12, endColumn: 1}
`

// SetupTestProject writes the model files into a temp dir under models/
// and returns the project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	models := filepath.Join(dir, "models")
	if err := os.MkdirAll(models, 0o755); err != nil {
		t.Fatalf("failed to create models dir: %v", err)
	}
	for name, body := range map[string]string{"model.yaml": ModelYAML, "store.yaml": StoreYAML} {
		if err := os.WriteFile(filepath.Join(models, name), []byte(body), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// Execute runs cmd with args and returns what it wrote to stdout and
// stderr.
func Execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(t.Context())
	return out.String(), errOut.String(), err
}

// TestRenderer wraps a Renderer with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a test renderer with the given mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that s contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

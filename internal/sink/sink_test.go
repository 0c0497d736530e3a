package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/pkg/typerep"
)

var node = typerep.ExpandedRef{Name: "Node", Props: []typerep.Property{
	{Key: typerep.NameKey("value"), Required: true, Type: typerep.Primitive{Name: typerep.String}},
	{Key: typerep.NameKey("next"), Required: false, Type: typerep.CircularRef{Name: "Node"}},
}}

func result(name, id string, tree typerep.Type) pipeline.Result {
	return pipeline.Result{
		Name:      name,
		RequestID: id,
		Source:    config.SourceGo,
		TypeName:  "model." + name,
		Tree:      typerep.Tree{Type: tree},
	}
}

func TestWriterSink_JSON(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	s := NewWriterSink(&buf, config.FormatJSON, false)

	// Act
	require.NoError(t, s.Emit(context.Background(), result("Node", "r1", node)))
	require.NoError(t, s.Close())

	// Assert
	var got []pipeline.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RequestID)
	assert.Equal(t, "model.Node", got[0].TypeName)
	if diff := cmp.Diff(typerep.Type(node), got[0].Tree.Type, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "compact output is one line")
}

func TestWriterSink_Indent(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, config.FormatJSON, true)
	require.NoError(t, s.Emit(context.Background(), result("Node", "r1", node)))
	require.NoError(t, s.Close())

	assert.Contains(t, buf.String(), "\n  {\n    \"name\": \"Node\"")
}

func TestWriterSink_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf, config.FormatJSON, false).Close())
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriterSink_YAML(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, config.FormatYAML, false)
	require.NoError(t, s.Emit(context.Background(), result("Node", "r1", node)))
	require.NoError(t, s.Close())

	var got []pipeline.Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Node", got[0].Name)
	assert.True(t, typerep.Equal(node, got[0].Tree.Type))
}

func TestIndentModes(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, indent(config.IndentTrue, f))
	assert.False(t, indent(config.IndentFalse, f))
	assert.False(t, indent(config.IndentAuto, f), "a regular file is not a terminal")
}

func TestGoSourceSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen", "shapes_gen.go")
	s := NewGoSourceSink(path, "shapes")
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, result("Node", "r1", node)))
	require.NoError(t, s.Emit(ctx, result("listener-config", "r2", typerep.Array{Element: typerep.Primitive{Name: typerep.Number}})))
	require.NoError(t, s.Close())

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(src)

	assert.True(t, strings.HasPrefix(out, "// Code generated by objectify. DO NOT EDIT.\n\npackage shapes\n"))
	assert.Contains(t, out, `import "github.com/funvibe/objectify/pkg/typerep"`)
	assert.Contains(t, out, "var Node = typerep.MustParse(`")
	assert.Contains(t, out, "var Listener_config = typerep.MustParse(`")
	assert.Contains(t, out, "// Node is the shape of model.Node (go).")

	// The embedded literal decodes back into the emitted tree.
	start := strings.Index(out, "var Node = typerep.MustParse(`") + len("var Node = typerep.MustParse(`")
	end := strings.Index(out[start:], "`")
	assert.True(t, typerep.Equal(node, typerep.MustParse(out[start:start+end])))
}

func TestGoSourceSink_Errors(t *testing.T) {
	ctx := context.Background()

	s := NewGoSourceSink(filepath.Join(t.TempDir(), "x.go"), "shapes")
	require.NoError(t, s.Emit(ctx, result("node", "r1", node)))
	err := s.Emit(ctx, result("Node", "r2", node))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both generate Node")

	bad := NewGoSourceSink(filepath.Join(t.TempDir(), "x.go"), "not a package")
	_, err = bad.Source()
	require.Error(t, err)
}

func TestGoSourceSink_NoResults(t *testing.T) {
	s := NewGoSourceSink(filepath.Join(t.TempDir(), "x.go"), "shapes")
	src, err := s.Source()
	require.NoError(t, err)

	f, err := parser.ParseFile(token.NewFileSet(), "x.go", src, parser.ImportsOnly)
	require.NoError(t, err)
	assert.Empty(t, f.Imports, "an empty file must not import typerep")
}

func TestGoSourceSink_CloseWithoutResultsKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shapes_gen.go")
	previous := []byte("package shapes\n\nvar Node = 1\n")
	require.NoError(t, os.WriteFile(path, previous, 0o644))

	require.NoError(t, NewGoSourceSink(path, "shapes").Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, previous, got)

	missing := filepath.Join(t.TempDir(), "gen", "missing_gen.go")
	require.NoError(t, NewGoSourceSink(missing, "shapes").Close())
	_, err = os.Stat(missing)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExportedIdentifier(t *testing.T) {
	tests := map[string]string{
		"Node":      "Node",
		"user":      "User",
		"acme.User": "Acme_User",
		"1st":       "X1st",
		"":          "X",
	}
	for in, want := range tests {
		if got := exportedIdentifier(in); got != want {
			t.Errorf("exportedIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGoString(t *testing.T) {
	assert.Equal(t, "`{}`", goString("{}"))
	assert.Equal(t, "\"a`b\"", goString("a`b"))
}

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "trees.db"))
	require.NoError(t, err)
	defer s.Close()

	older := typerep.Primitive{Name: typerep.String}
	require.NoError(t, s.Emit(ctx, result("Node", "r1", older)))
	require.NoError(t, s.Emit(ctx, result("Node", "r2", node)))
	require.NoError(t, s.Emit(ctx, result("Edge", "r3", typerep.Null{})))

	got, err := s.Lookup(ctx, "Node")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RequestID)
	assert.Equal(t, config.SourceGo, got.Source)
	if diff := cmp.Diff(typerep.Type(node), got.Tree.Type, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Edge", "Node"}, names)

	_, err = s.Lookup(ctx, "Missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.Emit(ctx, result("Dup", "r1", node))
	assert.Error(t, err, "request IDs are unique")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := &config.Config{Dir: dir, Output: config.OutputConfig{
		Sink: config.SinkFile, Format: config.FormatJSON, Indent: config.IndentFalse, Path: "out.json",
	}}
	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, s.Emit(ctx, result("Node", "r1", node)))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `[{"name":"Node","requestId":"r1"`))

	cfg.Output = config.OutputConfig{Sink: config.SinkSQLite, Path: "trees.db"}
	s, err = Open(ctx, cfg)
	require.NoError(t, err)
	require.IsType(t, &SQLiteSink{}, s)
	require.NoError(t, s.Close())

	cfg.Output = config.OutputConfig{Sink: config.SinkGoSource, Path: "gen.go", Package: "shapes"}
	s, err = Open(ctx, cfg)
	require.NoError(t, err)
	require.IsType(t, &GoSourceSink{}, s)

	cfg.Output = config.OutputConfig{Sink: "kafka"}
	_, err = Open(ctx, cfg)
	require.Error(t, err)
}

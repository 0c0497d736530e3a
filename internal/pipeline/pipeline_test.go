package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

const pointProto = `syntax = "proto3";
package geo;
message Point {
  int32 x = 1;
  int32 y = 2;
}
`

var num = typerep.Primitive{Name: typerep.Number}

type recorder struct {
	results []Result
	err     error
}

func (r *recorder) Emit(_ context.Context, res Result) error {
	if r.err != nil {
		return r.err
	}
	r.results = append(r.results, res)
	return nil
}

func writeProto(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "point.proto"), []byte(pointProto), 0o644))
	return dir
}

func parseConfig(t *testing.T, dir, src string) *config.Config {
	t.Helper()
	cfg, err := config.ParseConfig([]byte(src), filepath.Join(dir, "objectify.yaml"))
	require.NoError(t, err)
	return cfg
}

func run(cfg *config.Config, emitter Emitter) *PipelineContext {
	return Default().Run(NewPipelineContext(context.Background(), cfg, emitter))
}

func TestPipeline_Run(t *testing.T) {
	// Arrange
	dir := writeProto(t)
	cfg := parseConfig(t, dir, `
targets:
  - source: proto
    file: point.proto
    type: geo.Point
  - source: hcl
    expr: object({port = optional(number), host = string})
    as: Listener
`)
	rec := &recorder{}

	// Act
	ctx := run(cfg, rec)

	// Assert
	require.NoError(t, ctx.Err())
	require.Len(t, rec.results, 2)

	point := rec.results[0]
	assert.Equal(t, "Point", point.Name)
	assert.Equal(t, config.SourceProto, point.Source)
	assert.NotEmpty(t, point.RequestID)
	want := typerep.ExpandedRef{Name: "Point", Props: []typerep.Property{
		{Key: typerep.NameKey("x"), Required: true, Type: num},
		{Key: typerep.NameKey("y"), Required: true, Type: num},
	}}
	if diff := cmp.Diff(want, point.Tree.Type, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}

	listener := rec.results[1]
	assert.Equal(t, "Listener", listener.Name)
	assert.NotEqual(t, point.RequestID, listener.RequestID)
	lit, ok := listener.Tree.Type.(typerep.Literal)
	require.True(t, ok, "got %T", listener.Tree.Type)
	require.Len(t, lit.Props, 2)
	assert.Equal(t, "host", lit.Props[0].Key.Name)
	assert.False(t, lit.Props[1].Required)
}

func TestPipeline_ContinuesAfterErrors(t *testing.T) {
	dir := writeProto(t)
	cfg := parseConfig(t, dir, `
targets:
  - source: hcl
    expr: object({
    as: Broken
  - source: proto
    file: point.proto
    type: geo.Missing
  - source: hcl
    expr: list(string)
    as: Names
`)
	rec := &recorder{}

	ctx := run(cfg, rec)

	require.Len(t, ctx.Errors, 2)
	var first, second *TargetError
	require.ErrorAs(t, ctx.Errors[0], &first)
	require.ErrorAs(t, ctx.Errors[1], &second)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "Broken", first.Target)
	assert.Equal(t, 1, second.Index)
	assert.Contains(t, second.Error(), "geo.Missing")

	require.Len(t, rec.results, 1)
	assert.Equal(t, "Names", rec.results[0].Name)
	assert.Equal(t, typerep.Array{Element: typerep.Primitive{Name: typerep.String}}, rec.results[0].Tree.Type)
}

func TestPipeline_MaxDepth(t *testing.T) {
	cfg := parseConfig(t, t.TempDir(), `
resolve:
  max_depth: 1
targets:
  - source: hcl
    expr: object({a = object({b = object({c = object({d = string})})})})
    as: Deep
`)

	ctx := run(cfg, nil)

	require.Len(t, ctx.Errors, 1)
	assert.True(t, errors.Is(ctx.Errors[0], resolver.ErrUnrepresentable))
	assert.Empty(t, ctx.Results)
}

func TestPipeline_EmitError(t *testing.T) {
	cfg := parseConfig(t, t.TempDir(), `
targets:
  - source: hcl
    expr: string
    as: S
  - source: hcl
    expr: number
    as: N
`)
	boom := errors.New("disk full")

	ctx := run(cfg, &recorder{err: boom})

	require.Len(t, ctx.Results, 2)
	require.Len(t, ctx.Errors, 2)
	assert.ErrorIs(t, ctx.Err(), boom)
}

func TestPipeline_NilEmitter(t *testing.T) {
	cfg := parseConfig(t, t.TempDir(), "targets:\n  - source: hcl\n    expr: bool\n    as: Flag\n")

	ctx := run(cfg, nil)

	require.NoError(t, ctx.Err())
	require.Len(t, ctx.Results, 1)
	assert.Equal(t, typerep.Primitive{Name: typerep.Boolean}, ctx.Results[0].Tree.Type)
}

func TestResolveTarget(t *testing.T) {
	dir := writeProto(t)

	res, err := ResolveTarget(context.Background(), dir, config.Target{
		Source: config.SourceProto,
		File:   "point.proto",
		Type:   "geo.Point",
	}, config.ResolveConfig{})
	require.NoError(t, err)
	assert.Equal(t, "Point", res.Name)
	assert.Equal(t, "geo.Point", res.TypeName)

	_, err = ResolveTarget(context.Background(), dir, config.Target{Source: config.SourceHCL}, config.ResolveConfig{})
	require.Error(t, err)
}

func TestLoader_CachesRegistries(t *testing.T) {
	dir := writeProto(t)
	l := NewLoader(dir)
	target := config.Target{Source: config.SourceProto, File: "point.proto", Type: "geo.Point"}

	_, err := l.Bind(context.Background(), target)
	require.NoError(t, err)
	_, err = l.Bind(context.Background(), target)
	require.NoError(t, err)

	assert.Len(t, l.protos, 1)
}

func TestPipeline_GoTarget(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with the go toolchain")
	}
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := filepath.Join(wd, "..", "providers", "gotypes")

	res, err := ResolveTarget(context.Background(), dir, config.Target{
		Source: config.SourceGo,
		Pkg:    "./testdata/model",
		Type:   "Event",
	}, config.ResolveConfig{})
	require.NoError(t, err)
	ref, ok := res.Tree.Type.(typerep.ExpandedRef)
	require.True(t, ok, "got %T", res.Tree.Type)
	assert.Equal(t, "Event", ref.Name)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Result is one finished resolution request.
type Result struct {
	// Name is the target's output name.
	Name string `json:"name" yaml:"name"`

	// RequestID identifies the request that produced Tree.
	RequestID string `json:"requestId" yaml:"requestId"`

	// Source is the target source kind: go, proto or hcl.
	Source string `json:"source" yaml:"source"`

	// TypeName is the display name of the root type.
	TypeName string `json:"typeName" yaml:"typeName"`

	Tree typerep.Tree `json:"tree" yaml:"tree"`
}

// Emitter receives finished results.
type Emitter interface {
	Emit(ctx context.Context, r Result) error
}

// TargetError reports a failure attributed to one configured target.
type TargetError struct {
	Index  int
	Target string
	Err    error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("targets[%d] (%s): %v", e.Index, e.Target, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}

// PipelineContext is threaded through the stages of a Pipeline.
type PipelineContext struct {
	Context context.Context
	Config  *config.Config

	// Emitter receives results in EmitProcessor. A nil Emitter makes the
	// emit stage a no-op.
	Emitter Emitter

	// Loader caches loaded type sources across targets.
	Loader *Loader

	// bindings is aligned with Config.Targets; nil entries failed to load.
	bindings []*Binding

	Results []Result
	Errors  []error
}

// NewPipelineContext prepares a run over cfg's targets.
func NewPipelineContext(ctx context.Context, cfg *config.Config, emitter Emitter) *PipelineContext {
	return &PipelineContext{
		Context: ctx,
		Config:  cfg,
		Emitter: emitter,
		Loader:  NewLoader(cfg.Dir),
	}
}

func (ctx *PipelineContext) fail(i int, err error) {
	ctx.Errors = append(ctx.Errors, &TargetError{
		Index:  i,
		Target: ctx.Config.Targets[i].Name(),
		Err:    err,
	})
}

// Err joins every error collected by the run, or returns nil.
func (ctx *PipelineContext) Err() error {
	return errors.Join(ctx.Errors...)
}

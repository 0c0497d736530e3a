package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/ctxlog"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// LoadProcessor loads the source of every target and looks up its root
// type.
type LoadProcessor struct{}

func (lp *LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	log := ctxlog.FromContext(ctx.Context)
	ctx.bindings = make([]*Binding, len(ctx.Config.Targets))
	for i, t := range ctx.Config.Targets {
		b, err := ctx.Loader.Bind(ctx.Context, t)
		if err != nil {
			ctx.fail(i, err)
			continue
		}
		log.Debug("target loaded", "target", t.Name(), "source", t.Source, "type", b.TypeName)
		ctx.bindings[i] = b
	}
	return ctx
}

// ResolveProcessor runs one resolution request per loaded target.
type ResolveProcessor struct{}

func (rp *ResolveProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for i, b := range ctx.bindings {
		if b == nil {
			continue
		}
		if err := ctx.Context.Err(); err != nil {
			ctx.fail(i, err)
			continue
		}
		res, err := resolveBinding(ctx.Context, b, ctx.Config.Resolve)
		if err != nil {
			ctx.fail(i, err)
			continue
		}
		ctx.Results = append(ctx.Results, res)
	}
	return ctx
}

// EmitProcessor hands every result to the context's Emitter.
type EmitProcessor struct{}

func (ep *EmitProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Emitter == nil {
		return ctx
	}
	for _, res := range ctx.Results {
		if err := ctx.Emitter.Emit(ctx.Context, res); err != nil {
			ctx.Errors = append(ctx.Errors, err)
		}
	}
	return ctx
}

func resolveBinding(ctx context.Context, b *Binding, rc config.ResolveConfig) (Result, error) {
	id := uuid.NewString()
	log := ctxlog.FromContext(ctx).With("request_id", id, "target", b.Target.Name())

	opts := []resolver.Option{resolver.WithLogger(log)}
	if rc.MaxDepth > 0 {
		opts = append(opts, resolver.WithMaxDepth(rc.MaxDepth))
	}

	tree, err := b.Resolve(opts...)
	if err != nil {
		log.Debug("resolution failed", "error", err)
		return Result{}, err
	}
	log.Info("resolved", "type", b.TypeName, "kind", tree.Kind())
	return Result{
		Name:      b.Target.Name(),
		RequestID: id,
		Source:    b.Target.Source,
		TypeName:  b.TypeName,
		Tree:      typerep.Tree{Type: tree},
	}, nil
}

// ResolveTarget resolves one ad-hoc target. Relative paths in t are taken
// from dir.
func ResolveTarget(ctx context.Context, dir string, t config.Target, rc config.ResolveConfig) (Result, error) {
	b, err := NewLoader(dir).Bind(ctx, t)
	if err != nil {
		return Result{}, err
	}
	return resolveBinding(ctx, b, rc)
}

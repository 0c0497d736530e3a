// Package pipeline drives resolution requests for the targets of an
// objectify.yaml: load the type sources, resolve one tree per target, and
// hand the finished trees to an Emitter.
package pipeline

// Processor is one stage of a Pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Default returns the load, resolve and emit stages in order.
func Default() *Pipeline {
	return New(&LoadProcessor{}, &ResolveProcessor{}, &EmitProcessor{})
}

// Run executes the pipeline.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
		// Continue on errors so every failing target is reported, not
		// only the first.
	}
	return ctx
}

// Package sink writes finished type trees: as a JSON or YAML document, as
// generated Go source, or into a SQLite table.
package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/pipeline"
)

// Sink receives results and flushes them on Close.
type Sink interface {
	pipeline.Emitter
	Close() error
}

// Open builds the sink selected by cfg.Output. Relative output paths are
// taken from the config directory.
func Open(ctx context.Context, cfg *config.Config) (Sink, error) {
	out := cfg.Output
	path := cfg.ResolvePath(out.Path)

	switch out.Sink {
	case config.SinkStdout:
		return NewWriterSink(os.Stdout, out.Format, indent(out.Indent, os.Stdout)), nil
	case config.SinkFile:
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("creating output file: %w", err)
		}
		s := NewWriterSink(f, out.Format, indent(out.Indent, f))
		s.closer = f
		return s, nil
	case config.SinkGoSource:
		return NewGoSourceSink(path, out.Package), nil
	case config.SinkSQLite:
		return OpenSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unknown sink %q", out.Sink)
	}
}

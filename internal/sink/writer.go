package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/pipeline"
)

// WriterSink collects results and writes them to w as one JSON array or
// YAML sequence on Close.
type WriterSink struct {
	w       io.Writer
	format  string
	indent  bool
	results []pipeline.Result
	closer  io.Closer
}

func NewWriterSink(w io.Writer, format string, indent bool) *WriterSink {
	return &WriterSink{w: w, format: format, indent: indent}
}

func (s *WriterSink) Emit(_ context.Context, r pipeline.Result) error {
	s.results = append(s.results, r)
	return nil
}

func (s *WriterSink) Close() error {
	err := s.flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (s *WriterSink) flush() error {
	results := s.results
	if results == nil {
		results = []pipeline.Result{}
	}

	switch s.format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(s.w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		var data []byte
		var err error
		if s.indent {
			data, err = json.MarshalIndent(results, "", "  ")
		} else {
			data, err = json.Marshal(results)
		}
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		data = append(data, '\n')
		_, err = s.w.Write(data)
		return err
	}
}

// indent resolves an indent mode. auto indents only when f is a terminal.
func indent(mode string, f *os.File) bool {
	switch mode {
	case config.IndentTrue:
		return true
	case config.IndentFalse:
		return false
	default:
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
}

package sink

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/pkg/typerep"
)

const goSourceTemplate = `// Code generated by objectify. DO NOT EDIT.

package {{.Package}}
{{if .Vars}}
import "github.com/funvibe/objectify/pkg/typerep"
{{end}}{{range .Vars}}
// {{.Ident}} is the shape of {{.TypeName}} ({{.Source}}).
var {{.Ident}} = typerep.MustParse({{.Literal}})
{{end}}`

type goVar struct {
	Ident    string
	TypeName string
	Source   string
	Literal  string
}

// GoSourceSink writes one generated Go file declaring a typerep.Type
// variable per result.
type GoSourceSink struct {
	path    string
	pkg     string
	vars    []goVar
	idents  map[string]string
	written bool
}

func NewGoSourceSink(path, pkg string) *GoSourceSink {
	return &GoSourceSink{path: path, pkg: pkg, idents: make(map[string]string)}
}

func (s *GoSourceSink) Emit(_ context.Context, r pipeline.Result) error {
	ident := exportedIdentifier(r.Name)
	if prev, ok := s.idents[ident]; ok {
		return fmt.Errorf("gosource: %s and %s both generate %s", prev, r.Name, ident)
	}
	data, err := typerep.Marshal(r.Tree.Type)
	if err != nil {
		return fmt.Errorf("gosource: encoding %s: %w", r.Name, err)
	}
	s.idents[ident] = r.Name
	s.vars = append(s.vars, goVar{
		Ident:    ident,
		TypeName: r.TypeName,
		Source:   r.Source,
		Literal:  goString(string(data)),
	})
	return nil
}

// Source renders the formatted file content.
func (s *GoSourceSink) Source() ([]byte, error) {
	if !token.IsIdentifier(s.pkg) {
		return nil, fmt.Errorf("gosource: invalid package name %q", s.pkg)
	}
	tmpl, err := template.New("gosource").Parse(goSourceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	data := struct {
		Package string
		Vars    []goVar
	}{s.pkg, s.vars}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gosource: formatting: %w", err)
	}
	return src, nil
}

// Close writes the file. A sink that received no results leaves any
// existing file in place.
func (s *GoSourceSink) Close() error {
	if s.written {
		return nil
	}
	s.written = true
	if len(s.vars) == 0 {
		return nil
	}
	src, err := s.Source()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("gosource: %w", err)
		}
	}
	return os.WriteFile(s.path, src, 0o644)
}

// exportedIdentifier maps a target name to an exported Go identifier.
func exportedIdentifier(name string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return '_'
	}, name)
	if id == "" {
		return "X"
	}
	r := []rune(id)
	if !unicode.IsLetter(r[0]) {
		return "X" + id
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// goString quotes s as a raw string literal when possible.
func goString(s string) string {
	if strings.ContainsRune(s, '`') {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

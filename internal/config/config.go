// Package config loads objectify.yaml.
//
// The file names the types to resolve (targets), where the resulting trees
// go (output) and how the process logs:
//
//	log:
//	  level: info
//	  format: text
//	resolve:
//	  max_depth: 256
//	output:
//	  sink: gosource
//	  path: shapes/shapes_gen.go
//	  package: shapes
//	targets:
//	  - source: go
//	    pkg: ./model
//	    type: Node
//	  - source: proto
//	    file: api/user.proto
//	    import_paths: [api]
//	    type: acme.v1.User
//	  - source: hcl
//	    expr: object({name = string, port = optional(number)})
//	    as: Listener
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level objectify.yaml configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Resolve ResolveConfig `yaml:"resolve"`
	Output  OutputConfig  `yaml:"output"`

	// Targets lists the types to resolve, in output order.
	Targets []Target `yaml:"targets"`

	// Dir is the directory containing the config file. Relative target
	// and output paths are resolved against it.
	Dir string `yaml:"-"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level,omitempty"`

	// Format is text or json. Defaults to text.
	Format string `yaml:"format,omitempty"`
}

// ResolveConfig tunes the resolver.
type ResolveConfig struct {
	// MaxDepth limits tree nesting. Zero (the default) means unlimited.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// OutputConfig selects where resolved trees are written.
type OutputConfig struct {
	// Sink is one of stdout, file, gosource, sqlite. Defaults to stdout.
	Sink string `yaml:"sink,omitempty"`

	// Format is json or yaml for the stdout and file sinks.
	Format string `yaml:"format,omitempty"`

	// Indent is auto, true or false. auto indents when writing to a
	// terminal.
	Indent string `yaml:"indent,omitempty"`

	// Path is the output file (file, gosource) or database (sqlite).
	Path string `yaml:"path,omitempty"`

	// Package is the package clause of generated Go source.
	Package string `yaml:"package,omitempty"`
}

// Target is one type to resolve.
type Target struct {
	// Source is go, proto or hcl.
	Source string `yaml:"source"`

	// Pkg is the Go package pattern (source: go), e.g. "./model".
	Pkg string `yaml:"pkg,omitempty"`

	// File is the .proto file (source: proto).
	File string `yaml:"file,omitempty"`

	// ImportPaths are the proto import roots. Defaults to the directory
	// containing the config file.
	ImportPaths []string `yaml:"import_paths,omitempty"`

	// Type is the Go type name or the fully qualified proto message or
	// service name.
	Type string `yaml:"type,omitempty"`

	// Expr is an HCL type constraint (source: hcl).
	Expr string `yaml:"expr,omitempty"`

	// As names the tree in the output. Defaults to the last segment of
	// Type; required for hcl targets.
	As string `yaml:"as,omitempty"`
}

// Name returns the output name of the target.
func (t Target) Name() string {
	if t.As != "" {
		return t.As
	}
	if i := strings.LastIndexByte(t.Type, '.'); i >= 0 {
		return t.Type[i+1:]
	}
	return t.Type
}

// LoadConfig reads and parses an objectify.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses objectify.yaml content from bytes.
// The path argument is used for error messages and to set Dir.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return &cfg, nil
}

// FindConfig searches for objectify.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file and nil error if found,
// or empty string and nil error if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = LogFormatText
	}
	if c.Output.Sink == "" {
		c.Output.Sink = SinkStdout
	}
	if c.Output.Format == "" {
		c.Output.Format = FormatJSON
	}
	if c.Output.Indent == "" {
		c.Output.Indent = IndentAuto
	}
	if c.Output.Sink == SinkGoSource && c.Output.Package == "" {
		c.Output.Package = DefaultGoPackage
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%s: log.level %q must be one of %s", path, c.Log.Level, strings.Join(logLevels, ", "))
	}
	if c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		return fmt.Errorf("%s: log.format %q must be text or json", path, c.Log.Format)
	}
	if c.Resolve.MaxDepth < 0 {
		return fmt.Errorf("%s: resolve.max_depth must not be negative", path)
	}
	if err := c.Output.validate(); err != nil {
		return fmt.Errorf("%s: output: %w", path, err)
	}

	if len(c.Targets) == 0 {
		return fmt.Errorf("%s: no targets defined", path)
	}

	seenNames := make(map[string]int) // name → target index (for conflict detection)
	for i, t := range c.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%s: targets[%d]: %w", path, i, err)
		}
		name := t.Name()
		if prev, ok := seenNames[name]; ok {
			return fmt.Errorf("%s: targets[%d]: name %q conflicts with targets[%d]", path, i, name, prev)
		}
		seenNames[name] = i
	}

	return nil
}

func (o OutputConfig) validate() error {
	switch o.Sink {
	case SinkStdout:
	case SinkFile, SinkGoSource, SinkSQLite:
		if o.Path == "" {
			return fmt.Errorf("path is required for sink %q", o.Sink)
		}
	default:
		return fmt.Errorf("unknown sink %q", o.Sink)
	}
	if o.Format != FormatJSON && o.Format != FormatYAML {
		return fmt.Errorf("format %q must be json or yaml", o.Format)
	}
	switch o.Indent {
	case IndentAuto, IndentTrue, IndentFalse:
	default:
		return fmt.Errorf("indent %q must be auto, true or false", o.Indent)
	}
	return nil
}

// Validate checks that t names a resolvable type. It is also applied to
// targets that arrive over RPC.
func (t Target) Validate() error {
	switch t.Source {
	case SourceGo:
		if t.Pkg == "" || t.Type == "" {
			return fmt.Errorf("go targets require pkg and type")
		}
	case SourceProto:
		if t.File == "" || t.Type == "" {
			return fmt.Errorf("proto targets require file and type")
		}
	case SourceHCL:
		if t.Expr == "" {
			return fmt.Errorf("hcl targets require expr")
		}
		if t.As == "" {
			return fmt.Errorf("hcl targets require as")
		}
	case "":
		return fmt.Errorf("source is required")
	default:
		return fmt.Errorf("unknown source %q", t.Source)
	}
	if t.Source != SourceHCL && t.Expr != "" {
		return fmt.Errorf("expr is only valid with source hcl")
	}
	return nil
}

// ResolvePath returns p relative to the config directory unless it is
// absolute.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Package cli implements the objectify command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/ctxlog"
	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/internal/providers/ctytype"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/internal/rpc"
	"github.com/funvibe/objectify/internal/sink"
	"github.com/funvibe/objectify/pkg/typerep"
)

const usage = `Usage: objectify <command> [--config path]

Commands:
  resolve            resolve every target into the configured sink
  check              validate the config and resolve every target without writing
  list               print the configured targets
  serve [--addr a]   serve objectify.v1.Resolver over gRPC (default %s)
  hcl <expr>         resolve one HCL type constraint and print its tree
  version            print the version
  help               show this help

The config is read from --config or from the first objectify.yaml found
walking up from the working directory.
`

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// command is the invocation state shared by the handlers.
type command struct {
	ctx    context.Context
	args   []string
	stdout io.Writer
	stderr io.Writer
}

func (c *command) errorf(format string, args ...any) int {
	fmt.Fprintf(c.stderr, "Error: "+format+"\n", args...)
	return exitError
}

// Run executes the command line in os.Args and exits.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(exitError)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Main(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Main runs the command line args (args[0] is the program name) and
// returns the process exit code.
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		fmt.Fprintf(stderr, usage, config.DefaultRPCAddress)
		return exitUsage
	}
	c := &command{ctx: ctx, args: args[2:], stdout: stdout, stderr: stderr}

	switch args[1] {
	case "-v", "-version", "--version", "version":
		fmt.Fprintln(stdout, "objectify "+config.Version)
		return exitOK
	case "-h", "-help", "--help", "help":
		fmt.Fprintf(stdout, usage, config.DefaultRPCAddress)
		return exitOK
	case "hcl":
		return c.handleHCL()
	case "resolve":
		return c.withConfig(c.handleResolve)
	case "check":
		return c.withConfig(c.handleCheck)
	case "list":
		return c.withConfig(c.handleList)
	case "serve":
		return c.handleServe()
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		fmt.Fprintln(stderr, "Available: check, hcl, list, resolve, serve, version")
		return exitUsage
	}
}

// takeFlag removes "--name value" from c.args and returns the value.
func (c *command) takeFlag(name string) (string, bool) {
	for i := 0; i < len(c.args); i++ {
		if c.args[i] != "--"+name && c.args[i] != "-"+name {
			continue
		}
		if i+1 >= len(c.args) {
			return "", false
		}
		value := c.args[i+1]
		c.args = append(c.args[:i:i], c.args[i+2:]...)
		return value, true
	}
	return "", false
}

// findConfig returns the --config path, or the first config found walking
// up from the working directory.
func (c *command) findConfig() (string, error) {
	if path, ok := c.takeFlag("config"); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine working directory: %w", err)
	}
	found, err := config.FindConfig(cwd)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.New("objectify.yaml not found (or use --config)")
	}
	return found, nil
}

func (c *command) withConfig(handle func(cfg *config.Config, path string) int) int {
	path, err := c.findConfig()
	if err != nil {
		return c.errorf("%v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return c.errorf("%v", err)
	}
	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, c.stderr)
	c.ctx = ctxlog.WithLogger(c.ctx, logger)
	return handle(cfg, path)
}

func (c *command) reportErrors(errs []error) {
	for _, err := range errs {
		fmt.Fprintf(c.stderr, "- %s\n", err)
	}
}

func (c *command) handleResolve(cfg *config.Config, _ string) int {
	out, err := sink.Open(c.ctx, cfg)
	if err != nil {
		return c.errorf("%v", err)
	}

	final := pipeline.Default().Run(pipeline.NewPipelineContext(c.ctx, cfg, out))
	if err := out.Close(); err != nil {
		final.Errors = append(final.Errors, fmt.Errorf("closing %s sink: %w", cfg.Output.Sink, err))
	}

	if len(final.Errors) > 0 {
		fmt.Fprintln(c.stderr, "Resolution failed with errors:")
		c.reportErrors(final.Errors)
		return exitError
	}
	ctxlog.FromContext(c.ctx).Info("done", "targets", len(final.Results), "sink", cfg.Output.Sink)
	return exitOK
}

func (c *command) handleCheck(cfg *config.Config, path string) int {
	fmt.Fprintf(c.stdout, "Config: %s ✓\n", path)
	fmt.Fprintf(c.stdout, "Targets: %d\n", len(cfg.Targets))

	final := pipeline.New(&pipeline.LoadProcessor{}, &pipeline.ResolveProcessor{}).
		Run(pipeline.NewPipelineContext(c.ctx, cfg, nil))
	for _, r := range final.Results {
		fmt.Fprintf(c.stdout, "  %s → %s (%s)\n", r.Name, r.Tree.Type.Kind(), r.TypeName)
	}

	if len(final.Errors) > 0 {
		fmt.Fprintln(c.stderr, "Check failed with errors:")
		c.reportErrors(final.Errors)
		return exitError
	}
	fmt.Fprintln(c.stdout, "\nAll checks passed ✓")
	return exitOK
}

func (c *command) handleList(cfg *config.Config, _ string) int {
	for _, t := range cfg.Targets {
		switch t.Source {
		case config.SourceGo:
			fmt.Fprintf(c.stdout, "%s (go %s.%s)\n", t.Name(), t.Pkg, t.Type)
		case config.SourceProto:
			fmt.Fprintf(c.stdout, "%s (proto %s %s)\n", t.Name(), t.File, t.Type)
		case config.SourceHCL:
			fmt.Fprintf(c.stdout, "%s (hcl %s)\n", t.Name(), t.Expr)
		}
	}
	return exitOK
}

func (c *command) handleHCL() int {
	maxDepth := 0
	if v, ok := c.takeFlag("max-depth"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.errorf("invalid --max-depth %q", v)
		}
		maxDepth = n
	}
	expr := strings.TrimSpace(strings.Join(c.args, " "))
	if expr == "" {
		fmt.Fprintf(c.stderr, "Usage: objectify hcl <expr>\n")
		return exitUsage
	}

	root, err := ctytype.Parse(expr, "<arg>")
	if err != nil {
		return c.errorf("%v", err)
	}
	var opts []resolver.Option
	if maxDepth > 0 {
		opts = append(opts, resolver.WithMaxDepth(maxDepth))
	}
	tree, err := resolver.New[*ctytype.Node](ctytype.Provider{}, opts...).Resolve(root)
	if err != nil {
		return c.errorf("%v", err)
	}
	data, err := typerep.MarshalIndent(tree, "", "  ")
	if err != nil {
		return c.errorf("%v", err)
	}
	fmt.Fprintln(c.stdout, string(data))
	return exitOK
}

func (c *command) handleServe() int {
	addr, ok := c.takeFlag("addr")
	if !ok {
		addr = config.DefaultRPCAddress
	}

	// The config is optional here: it only supplies logging, the depth
	// limit and the base directory for relative target paths.
	var cfg *config.Config
	if path, err := c.findConfig(); err == nil {
		if cfg, err = config.LoadConfig(path); err != nil {
			return c.errorf("%v", err)
		}
	}
	dir := "."
	logger := ctxlog.New(config.DefaultLogLevel, config.LogFormatText, c.stderr)
	var rc config.ResolveConfig
	if cfg != nil {
		dir = cfg.Dir
		logger = ctxlog.New(cfg.Log.Level, cfg.Log.Format, c.stderr)
		rc = cfg.Resolve
	}

	return c.serve(addr, dir, rc, logger)
}

func (c *command) serve(addr, dir string, rc config.ResolveConfig, logger *slog.Logger) int {
	srv, err := rpc.NewServer(dir, rc, logger)
	if err != nil {
		return c.errorf("%v", err)
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return c.errorf("listening on %s: %v", addr, err)
	}
	if err := srv.Serve(c.ctx, lis); err != nil {
		return c.errorf("%v", err)
	}
	return exitOK
}

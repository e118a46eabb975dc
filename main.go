package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"

	"github.com/mcncl/schemaplay/internal/config"
	"github.com/mcncl/schemaplay/internal/errors"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Globals

	Playground   PlaygroundCmd   `cmd:"" default:"withargs" help:"Edit a JSON Schema and watch the Go type update as you type."`
	Convert      ConvertCmd      `cmd:"" help:"Convert a JSON Schema to a Go type once."`
	Fmt          FmtCmd          `cmd:"" help:"Re-indent a JSON Schema as standard JSON."`
	ConfigSchema ConfigSchemaCmd `cmd:"" name:"config-schema" help:"Print the JSON Schema of the config file."`
}

// Globals are the flags shared by every command.
type Globals struct {
	Config    string           `help:"Path to config file. Defaults to .schemaplay.yml in the current directory or a parent." short:"c" type:"path"`
	RootName  string           `help:"Name for the root type." short:"r"`
	Package   string           `help:"Package name used when inline is off." short:"p"`
	Strict    bool             `help:"Check the schema against its metaschema before converting."`
	LogLevel  string           `help:"Log level (debug, info, warn, error)."`
	LogFormat string           `help:"Log format (text, logfmt, json)."`
	LogFile   string           `help:"Write logs to this file." type:"path"`
	Version   kong.VersionFlag `help:"Show version information." short:"v"`
}

// Streams are the standard streams a command works with.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// InTTY and OutTTY report whether In and Out are terminals.
	InTTY  bool
	OutTTY bool
}

func main() {
	streams := &Streams{
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
		InTTY:  isTerminal(os.Stdin.Fd()),
		OutTTY: isTerminal(os.Stdout.Fd()),
	}

	os.Exit(run(os.Args[1:], streams))
}

// run parses args, runs the selected command, and returns the exit code.
func run(args []string, streams *Streams) int {
	var cli CLI

	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("schemaplay"),
		kong.Description("A playground that turns JSON Schema into Go types"),
		kong.Vars{"version": fmt.Sprintf("schemaplay version %s", Version)},
		kong.Writers(streams.Out, streams.Err),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		fmt.Fprintf(streams.Err, "%s\n", errors.UserFriendlyError(err))
		return 1
	}

	ctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version
		return exitCode
	}
	if err != nil {
		fmt.Fprintf(streams.Err, "schemaplay: error: %v\n", err)
		fmt.Fprintf(streams.Err, "\nFor help, run: schemaplay --help\n")
		return 1
	}

	if err := ctx.Run(&cli.Globals, streams); err != nil {
		fmt.Fprintf(streams.Err, "%s\n", errors.UserFriendlyError(err))
		return 1
	}
	return 0
}

// overrides returns the flags that take precedence over the config file.
func (g *Globals) overrides() config.Overrides {
	o := config.Overrides{
		RootName:  g.RootName,
		Package:   g.Package,
		LogLevel:  g.LogLevel,
		LogFormat: g.LogFormat,
		LogFile:   g.LogFile,
	}
	if g.Strict {
		o.Strict = &g.Strict
	}
	return o
}

// loadConfig loads the config file named by --config, or the one found
// from the working directory, and applies the flags on top.
func (g *Globals) loadConfig(overrides config.Overrides) (*config.Config, error) {
	path := g.Config
	if path == "" {
		path = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(path, overrides)
	if err != nil {
		return nil, errors.NewConfigError("failed to load config", err)
	}
	return cfg, nil
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

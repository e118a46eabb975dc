package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcncl/schemaplay/internal/clipboard"
	"github.com/mcncl/schemaplay/internal/config"
	"github.com/mcncl/schemaplay/internal/configschema"
	"github.com/mcncl/schemaplay/internal/errors"
	"github.com/mcncl/schemaplay/internal/log"
	"github.com/mcncl/schemaplay/internal/parser"
	"github.com/mcncl/schemaplay/internal/pipeline"
	"github.com/mcncl/schemaplay/internal/playground"
	"github.com/mcncl/schemaplay/internal/tui"
	"github.com/mcncl/schemaplay/internal/watch"
)

// PlaygroundCmd runs the interactive playground.
type PlaygroundCmd struct {
	File  string `arg:"" optional:"" help:"JSON Schema file to start from. Piped stdin is used when omitted, then a built-in example." type:"path"`
	Watch bool   `help:"Reload the file when it changes on disk." short:"w"`
}

func (c *PlaygroundCmd) Run(g *Globals, streams *Streams) error {
	if !streams.OutTTY {
		return errors.ErrNotTerminal
	}

	overrides := g.overrides()
	if c.Watch {
		overrides.Watch = &c.Watch
	}
	cfg, err := g.loadConfig(overrides)
	if err != nil {
		return err
	}
	if cfg.Playground.Watch && c.File == "" {
		return errors.NewInputError("--watch needs a file", errors.ErrNoInput)
	}

	// Logs would corrupt the screen, so they only go to a file
	logger, closeLog, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	initial, err := c.initialSource(streams)
	if err != nil {
		return err
	}

	// The renderer and the OSC 52 clipboard fallback share the terminal
	out := streams.Out
	if f, ok := out.(*os.File); ok {
		out = clipboard.NewTerminal(f)
	}

	session := playground.NewSession(pipeline.New(cfg, logger), initial, logger)
	model := tui.New(session, clipboard.NewSystem(out), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(out)}
	if !streams.InTTY {
		// stdin held the initial text, so keys come from the terminal
		opts = append(opts, tea.WithInputTTY())
	}
	program := tea.NewProgram(model, opts...)

	if cfg.Playground.Watch {
		err := watch.New(c.File, logger).Start(ctx, func(source string) {
			program.Send(tui.SourceMsg{Source: source})
		})
		if err != nil {
			return err
		}
		logger.Info("watching file", "path", c.File)
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("playground failed: %w", err)
	}
	return nil
}

func (c *PlaygroundCmd) initialSource(streams *Streams) (string, error) {
	if c.File != "" {
		return parser.ReadFile(c.File)
	}
	if !streams.InTTY {
		data, err := io.ReadAll(streams.In)
		if err != nil {
			return "", errors.NewInputError("failed to read from stdin", err)
		}
		if len(data) > 0 {
			return string(data), nil
		}
	}
	return playground.ExampleSchema, nil
}

// ConvertCmd converts a schema once, like the playground does on every
// keystroke.
type ConvertCmd struct {
	Input  string `help:"Path to input JSON Schema file. If not specified, reads from stdin." short:"i" type:"path"`
	Output string `help:"Path to output Go file. If not specified, writes to stdout." short:"o" type:"path"`
}

func (c *ConvertCmd) Run(g *Globals, streams *Streams) error {
	cfg, err := g.loadConfig(g.overrides())
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, streams.Err)
	if err != nil {
		return err
	}
	defer closeLog()

	source, err := readInput(c.Input, streams)
	if err != nil {
		return err
	}

	code, err := pipeline.New(cfg, logger).Recompute(source)
	if err != nil {
		return err
	}

	return writeOutput(streams, c.Output, code)
}

// FmtCmd re-indents a schema.
type FmtCmd struct {
	Input string `help:"Path to input JSON Schema file. If not specified, reads from stdin." short:"i" type:"path"`
	Write bool   `help:"Write the result back to the input file." short:"w"`
}

func (c *FmtCmd) Run(g *Globals, streams *Streams) error {
	if c.Write && c.Input == "" {
		return errors.NewInputError("--write needs --input", errors.ErrInvalidFilePath)
	}

	cfg, err := g.loadConfig(g.overrides())
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, streams.Err)
	if err != nil {
		return err
	}
	defer closeLog()

	source, err := readInput(c.Input, streams)
	if err != nil {
		return err
	}

	formatted, err := pipeline.New(cfg, logger).Format(source)
	if err != nil {
		return err
	}

	if c.Write {
		return writeOutput(streams, c.Input, formatted+"\n")
	}
	return writeOutput(streams, "", formatted)
}

// ConfigSchemaCmd prints the JSON Schema of the config file.
type ConfigSchemaCmd struct {
	Output string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
}

func (c *ConfigSchemaCmd) Run(streams *Streams) error {
	data, err := configschema.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}
	return writeOutput(streams, c.Output, string(data)+"\n")
}

// newLogger builds the logger described by cfg. Logs go to cfg.Log.File
// when set, otherwise to w, and are discarded when w is nil.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, func(), error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.NewOutputError(fmt.Sprintf("failed to open log file '%s'", cfg.Log.File), err)
		}
		return log.New(f, cfg.Log.Level, cfg.Log.Format), func() { _ = f.Close() }, nil
	}
	if w == nil {
		return log.Discard(), func() {}, nil
	}
	return log.New(w, cfg.Log.Level, cfg.Log.Format), func() {}, nil
}

// readInput reads schema text from a file or piped stdin.
func readInput(path string, streams *Streams) (string, error) {
	if path != "" {
		return parser.ReadFile(path)
	}

	if streams.InTTY {
		return "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(streams.In)
	if err != nil {
		return "", errors.NewInputError("failed to read from stdin", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), nil
}

// writeOutput writes text to a file, or to stdout when path is empty.
func writeOutput(streams *Streams, path, text string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		fmt.Fprintf(streams.Err, "Written to %s\n", path)
		return nil
	}

	if _, err := fmt.Fprintln(streams.Out, strings.TrimRight(text, "\n")); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

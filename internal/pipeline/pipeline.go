// Package pipeline turns schema source text into Go source text: lenient
// parse, optional metaschema check, conversion to a struct-definition, and
// rendering. Every failure comes back as a *errors.ConversionError.
package pipeline

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/mcncl/schemaplay/internal/config"
	"github.com/mcncl/schemaplay/internal/errors"
	"github.com/mcncl/schemaplay/internal/formatter"
	"github.com/mcncl/schemaplay/internal/generator"
	"github.com/mcncl/schemaplay/internal/models"
	"github.com/mcncl/schemaplay/internal/parser"
	"github.com/mcncl/schemaplay/internal/schema"
)

// Pipeline holds the configuration shared by every run.
type Pipeline struct {
	config    *config.Config
	logger    *slog.Logger
	generator *generator.Generator
	formatter *formatter.Formatter

	convert func(*schema.Schema) (models.AnalysisResult, error)
}

// New creates a pipeline. A nil config means defaults and a nil logger
// discards.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pipeline{
		config:    cfg,
		logger:    logger,
		generator: generator.NewGenerator(),
		formatter: formatter.NewFormatter(),
	}
	p.convert = func(s *schema.Schema) (models.AnalysisResult, error) {
		return schema.NewConverterWithConfig(s, p.config).Convert("")
	}
	return p
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *config.Config {
	return p.config
}

// Recompute converts source to Go source. The result only depends on source
// and the configuration.
func (p *Pipeline) Recompute(source string) (output string, err error) {
	defer func() {
		if r := recover(); r != nil {
			output = ""
			err = p.fail(errors.ErrorTypeConversion, panicError(r))
		}
	}()

	doc, err := parser.ParseString(source)
	if err != nil {
		return "", p.fail(errors.ErrorTypeParsing, err)
	}

	if p.config.Strict {
		if err := schema.Validate(doc.Bytes(), p.config.Draft); err != nil {
			return "", p.fail(errors.ErrorTypeValidation, err)
		}
	}

	s, err := schema.ParseBytes(doc.Bytes())
	if err != nil {
		return "", p.fail(errors.ErrorTypeConversion, err)
	}

	result, err := p.convert(s)
	if err != nil {
		return "", p.fail(errors.ErrorTypeConversion, err)
	}

	var code string
	if p.config.Inline {
		code, err = p.generator.Inline(result)
	} else {
		code, err = p.generator.GenerateStructs(result, p.config.Package)
	}
	if err != nil {
		return "", p.fail(errors.ErrorTypeGenerate, err)
	}

	if p.config.Formatting.Enabled {
		code, err = p.formatter.Format(code)
		if err != nil {
			return "", p.fail(errors.ErrorTypeFormat, err)
		}
	}

	p.logger.Debug("recomputed output", "root", result.RootName, "structs", len(result.Structs), "bytes", len(code))
	return code, nil
}

// Format re-serializes source as standard JSON indented by two spaces.
func (p *Pipeline) Format(source string) (string, error) {
	doc, err := parser.ParseString(source)
	if err != nil {
		return "", p.fail(errors.ErrorTypeParsing, err)
	}

	formatted, err := doc.Indent()
	if err != nil {
		return "", p.fail(errors.ErrorTypeFormat, err)
	}
	return formatted, nil
}

func (p *Pipeline) fail(stage errors.ErrorType, err error) *errors.ConversionError {
	p.logger.Debug("conversion failed", "stage", stage, "error", err)
	return errors.NewConversionError(stage, err)
}

// panicError turns a recovered value into an error. A panic without a
// message gives a nil error, which renders as the unknown error.
func panicError(r any) error {
	switch v := r.(type) {
	case error:
		return v
	case string:
		if v == "" {
			return nil
		}
		return stderrors.New(v)
	default:
		if msg := fmt.Sprint(v); msg != "" {
			return stderrors.New(msg)
		}
		return nil
	}
}

package config

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// DefaultRootName is the root type name used when neither the config nor
// the schema title provide one.
const DefaultRootName = "RootType"

// Supported metaschema drafts for strict mode.
const (
	Draft4    = "draft-04"
	Draft6    = "draft-06"
	Draft7    = "draft-07"
	Draft2019 = "2019-09"
	Draft2020 = "2020-12"
)

// Config represents the complete configuration for schemaplay
type Config struct {
	RootName   string           `yaml:"root_name,omitempty" jsonschema:"description=Name of the root type. Defaults to the schema title or RootType."`
	Package    string           `yaml:"package,omitempty" jsonschema:"description=Package clause used when inline is false."`
	Inline     bool             `yaml:"inline" jsonschema:"description=Render one declaration with nested anonymous structs instead of one named type per object."`
	Strict     bool             `yaml:"strict" jsonschema:"description=Check the schema against its metaschema before converting it."`
	Draft      string           `yaml:"draft,omitempty" jsonschema:"enum=draft-04,enum=draft-06,enum=draft-07,enum=2019-09,enum=2020-12,description=Metaschema used by strict mode when the schema has no $schema."`
	Formatting FormattingConfig `yaml:"formatting"`
	Types      TypesConfig      `yaml:"types"`
	Naming     NamingConfig     `yaml:"naming"`
	JSONTags   JSONTagsConfig   `yaml:"json_tags"`
	Validation ValidationConfig `yaml:"validation"`
	Playground PlaygroundConfig `yaml:"playground"`
	Log        LogConfig        `yaml:"log"`
}

// FormattingConfig controls code formatting options
type FormattingConfig struct {
	Enabled bool `yaml:"enabled" jsonschema:"description=Run gofmt over the generated declaration."`
}

// TypesConfig controls type mapping
type TypesConfig struct {
	ForceInt64         bool          `yaml:"force_int64" jsonschema:"description=Map integer to int64 instead of int."`
	OptionalAsPointers bool          `yaml:"optional_as_pointers" jsonschema:"description=Use pointers for optional and nullable fields."`
	Mappings           []TypeMapping `yaml:"mappings,omitempty" jsonschema:"description=Pattern-based Go type overrides keyed on the JSON property name."`
}

// TypeMapping defines a pattern-based type mapping
type TypeMapping struct {
	Pattern string `yaml:"pattern" jsonschema:"required,description=Regular expression matched against the JSON property name."`
	Type    string `yaml:"type" jsonschema:"required,description=Go type to use for matching properties."`
	Import  string `yaml:"import,omitempty" jsonschema:"description=Import path needed by the type."`
	Comment string `yaml:"comment,omitempty" jsonschema:"description=Comment added to matching fields."`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// NamingConfig controls field naming
type NamingConfig struct {
	FieldMappings map[string]string `yaml:"field_mappings,omitempty" jsonschema:"description=Explicit Go field names keyed on the JSON property name."`
	SortFields    bool              `yaml:"sort_fields" jsonschema:"description=Sort fields by Go name instead of keeping the schema property order."`
}

// JSONTagsConfig controls JSON tag generation
type JSONTagsConfig struct {
	OmitemptyForPointers bool     `yaml:"omitempty_for_pointers" jsonschema:"description=Add omitempty to optional pointer fields."`
	OmitemptyForSlices   bool     `yaml:"omitempty_for_slices" jsonschema:"description=Add omitempty to optional slice and map fields."`
	SkipFields           []string `yaml:"skip_fields,omitempty" jsonschema:"description=JSON property names rendered with json:\"-\"."`
}

// ValidationConfig controls validation tag generation
type ValidationConfig struct {
	Enabled bool             `yaml:"enabled" jsonschema:"description=Emit validate tags derived from schema constraints."`
	Rules   []ValidationRule `yaml:"rules,omitempty" jsonschema:"description=Extra validate rules keyed on the JSON property name."`
}

// ValidationRule defines a pattern-based validation rule
type ValidationRule struct {
	Pattern string `yaml:"pattern" jsonschema:"required,description=Regular expression matched against the JSON property name."`
	Tag     string `yaml:"tag" jsonschema:"required,description=Rule appended to the validate tag (e.g. email)."`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// PlaygroundConfig controls the interactive playground
type PlaygroundConfig struct {
	Watch bool `yaml:"watch" jsonschema:"description=Reload the source text when the opened file changes on disk."`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `yaml:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Log level."`
	Format string `yaml:"format,omitempty" jsonschema:"enum=text,enum=logfmt,enum=json,description=Log format."`
	File   string `yaml:"file,omitempty" jsonschema:"description=Log file. The playground discards logs when unset."`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Package: "main",
		Inline:  true,
		Strict:  false,
		Draft:   Draft7,
		Formatting: FormattingConfig{
			Enabled: true,
		},
		Types: TypesConfig{
			ForceInt64:         true,
			OptionalAsPointers: true,
			Mappings:           []TypeMapping{},
		},
		Naming: NamingConfig{
			FieldMappings: make(map[string]string),
			SortFields:    false,
		},
		JSONTags: JSONTagsConfig{
			OmitemptyForPointers: true,
			OmitemptyForSlices:   true,
		},
		Validation: ValidationConfig{
			Enabled: true,
			Rules:   []ValidationRule{},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findConfigFileFrom(currentDir)
}

func findConfigFileFrom(dir string) string {
	configNames := []string{".schemaplay.yml", ".schemaplay.yaml", "schemaplay.yml", "schemaplay.yaml"}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			// Reached root directory
			break
		}
		dir = parentDir
	}

	return ""
}

// Validate checks the config and compiles its patterns. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var merr *multierror.Error

	if c.Package != "" && (!token.IsIdentifier(c.Package) || token.IsKeyword(c.Package)) {
		merr = multierror.Append(merr, fmt.Errorf("package %q is not a valid Go package name", c.Package))
	}
	if c.RootName != "" && !startsWithLetter(c.RootName) {
		merr = multierror.Append(merr, fmt.Errorf("root_name %q must start with a letter", c.RootName))
	}

	switch c.Draft {
	case "", Draft4, Draft6, Draft7, Draft2019, Draft2020:
	default:
		merr = multierror.Append(merr, fmt.Errorf("unknown draft %q", c.Draft))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		merr = multierror.Append(merr, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "logfmt", "json":
	default:
		merr = multierror.Append(merr, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	for i := range c.Types.Mappings {
		mapping := &c.Types.Mappings[i]
		if strings.TrimSpace(mapping.Type) == "" {
			merr = multierror.Append(merr, fmt.Errorf("type mapping '%s' has no type", mapping.Pattern))
		}
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("invalid type mapping pattern '%s': %w", mapping.Pattern, err))
			continue
		}
		mapping.regex = regex
	}

	for i := range c.Validation.Rules {
		rule := &c.Validation.Rules[i]
		if strings.ContainsAny(rule.Tag, "`\"") {
			merr = multierror.Append(merr, fmt.Errorf("validation rule '%s' tag must not contain quotes", rule.Pattern))
		}
		regex, err := regexp.Compile(rule.Pattern)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("invalid validation rule pattern '%s': %w", rule.Pattern, err))
			continue
		}
		rule.regex = regex
	}

	for key, name := range c.Naming.FieldMappings {
		if !token.IsIdentifier(name) || !token.IsExported(name) {
			merr = multierror.Append(merr, fmt.Errorf("field mapping for %q must be an exported Go identifier, got %q", key, name))
		}
	}

	return merr.ErrorOrNil()
}

// MatchesField checks if this type mapping matches the given field name
func (tm *TypeMapping) MatchesField(fieldName string) bool {
	if tm.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(fieldName)
}

// MatchesField checks if this validation rule matches the given field name
func (vr *ValidationRule) MatchesField(fieldName string) bool {
	if vr.regex == nil {
		regex, err := regexp.Compile(vr.Pattern)
		if err != nil {
			return false
		}
		vr.regex = regex
	}
	return vr.regex.MatchString(fieldName)
}

// GetFieldName returns the Go field name for a JSON key, applying naming
// rules. The result is always an exported Go identifier.
func (c *Config) GetFieldName(jsonKey string) string {
	if mapped, exists := c.Naming.FieldMappings[jsonKey]; exists {
		return mapped
	}
	return ExportedName(jsonKey)
}

// ExportedName converts an arbitrary string into an exported Go identifier.
func ExportedName(s string) string {
	name := strcase.ToCamel(s)
	if name == "" {
		return "Field"
	}
	// strcase only capitalizes after a separator it knows, so "$schema"
	// comes back lower case.
	switch first := name[0]; {
	case first >= 'a' && first <= 'z':
		name = string(first-'a'+'A') + name[1:]
	case first < 'A' || first > 'Z':
		name = "X" + name
	}
	return name
}

// FindTypeMapping finds the first type mapping that matches the field name
func (c *Config) FindTypeMapping(fieldName string) (TypeMapping, bool) {
	for i := range c.Types.Mappings {
		if c.Types.Mappings[i].MatchesField(fieldName) {
			return c.Types.Mappings[i], true
		}
	}
	return TypeMapping{}, false
}

// FindValidationRules returns the tags of every rule matching the field name
func (c *Config) FindValidationRules(fieldName string) []string {
	if !c.Validation.Enabled {
		return nil
	}

	var tags []string
	for i := range c.Validation.Rules {
		if c.Validation.Rules[i].MatchesField(fieldName) {
			tags = append(tags, c.Validation.Rules[i].Tag)
		}
	}
	return tags
}

// ShouldSkipField checks if a field should be skipped (json:"-")
func (c *Config) ShouldSkipField(fieldName string) bool {
	for _, skip := range c.JSONTags.SkipFields {
		if skip == fieldName {
			return true
		}
	}
	return false
}

// Overrides holds values set on the command line. Nil pointers and empty
// strings mean "not set", so file values survive.
type Overrides struct {
	RootName  string
	Package   string
	Strict    *bool
	Watch     *bool
	LogLevel  string
	LogFormat string
	LogFile   string
}

// Apply copies every set override into the config.
func (o Overrides) Apply(cfg *Config) {
	if o.RootName != "" {
		cfg.RootName = o.RootName
	}
	if o.Package != "" {
		cfg.Package = o.Package
	}
	if o.Strict != nil {
		cfg.Strict = *o.Strict
	}
	if o.Watch != nil {
		cfg.Playground.Watch = *o.Watch
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.Log.Format = o.LogFormat
	}
	if o.LogFile != "" {
		cfg.Log.File = o.LogFile
	}
}

// LoadConfigWithCLI loads config with CLI argument precedence. An empty
// configPath means defaults only.
func LoadConfigWithCLI(configPath string, overrides Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	overrides.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return unicode.IsLetter(r)
	}
	return false
}

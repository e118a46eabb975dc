package pipeline

import (
	stderrors "errors"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/schemaplay/internal/config"
	"github.com/mcncl/schemaplay/internal/errors"
	"github.com/mcncl/schemaplay/internal/models"
	"github.com/mcncl/schemaplay/internal/schema"
)

func TestRecompute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty object",
			input:    `{"type": "object"}`,
			expected: "type RootType struct{}\n",
		},
		{
			name:     "trailing comma",
			input:    `{"type": "object",}`,
			expected: "type RootType struct{}\n",
		},
		{
			name:  "relaxed syntax",
			input: `{type: "object", /* fields */ properties: {name: {type: "string"},}, required: ["name"]}`,
			expected: "type RootType struct {\n" +
				"\tName string `json:\"name\" validate:\"required\"`\n" +
				"}\n",
		},
		{
			name:     "title names the root",
			input:    `{"title": "user", "type": "object"}`,
			expected: "type User struct{}\n",
		},
	}

	p := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := p.Recompute(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, output)
		})
	}
}

func TestRecompute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		stage  errors.ErrorType
		detail string
	}{
		{name: "invalid json", input: `{invalid json`, stage: errors.ErrorTypeParsing},
		{name: "empty input", input: "   ", stage: errors.ErrorTypeParsing},
		{name: "not a schema", input: `[1, 2, 3]`, stage: errors.ErrorTypeConversion, detail: "must be an object or a boolean"},
		{name: "recursive ref", input: `{"properties": {"self": {"$ref": "#"}}}`, stage: errors.ErrorTypeConversion, detail: "recursive $ref"},
	}

	p := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := p.Recompute(tt.input)
			require.Error(t, err)
			assert.Empty(t, output)

			var convErr *errors.ConversionError
			require.True(t, stderrors.As(err, &convErr))
			assert.Equal(t, tt.stage, convErr.Stage)
			assert.True(t, strings.HasPrefix(err.Error(), "Errors:\n"), err.Error())
			assert.NotEqual(t, "Errors:\n", err.Error())
			if tt.detail != "" {
				assert.Contains(t, convErr.Detail(), tt.detail)
			}
		})
	}
}

func TestRecompute_Strict(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Strict = true
	p := New(cfg, nil)

	_, err := p.Recompute(`{"type": "object", "properties": {"a": {"type": "string"}}}`)
	require.NoError(t, err)

	_, err = p.Recompute(`{"type": "objekt"}`)
	require.Error(t, err)

	var convErr *errors.ConversionError
	require.True(t, stderrors.As(err, &convErr))
	assert.Equal(t, errors.ErrorTypeValidation, convErr.Stage)

	// Lenient mode converts the same document
	_, err = New(nil, nil).Recompute(`{"type": "objekt"}`)
	assert.NoError(t, err)
}

func TestRecompute_Panics(t *testing.T) {
	tests := []struct {
		name     string
		panicVal any
		expected string
	}{
		{name: "message", panicVal: "boom", expected: "Errors:\nboom"},
		{name: "error", panicVal: stderrors.New("bad state"), expected: "Errors:\nbad state"},
		{name: "no message", panicVal: "", expected: "Errors:\nUnknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(nil, nil)
			p.convert = func(*schema.Schema) (models.AnalysisResult, error) {
				panic(tt.panicVal)
			}

			output, err := p.Recompute(`{"type": "object"}`)
			require.Error(t, err)
			assert.Empty(t, output)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestRecompute_EmptyErrorMessage(t *testing.T) {
	p := New(nil, nil)
	p.convert = func(*schema.Schema) (models.AnalysisResult, error) {
		return models.AnalysisResult{}, stderrors.New("")
	}

	_, err := p.Recompute(`{}`)
	require.Error(t, err)
	assert.Equal(t, "Errors:\nUnknown error", err.Error())
}

func TestRecompute_IsRepeatable(t *testing.T) {
	p := New(nil, nil)
	input := `{"properties": {"b": {"type": "integer"}, "a": {"type": "string"}}}`

	first, err := p.Recompute(input)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := p.Recompute(input)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Less(t, strings.Index(first, "B "), strings.Index(first, "A "), "fields keep the schema order")
}

func TestRecompute_NamedForm(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Inline = false
	cfg.Package = "models"

	output, err := New(cfg, nil).Recompute(`{"title": "event", "properties": {"at": {"type": "string", "format": "date-time"}}}`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(output, "package models\n"))
	assert.Contains(t, output, "import (\n\t\"time\"\n)")
	assert.Contains(t, output, "type Event struct {")
}

// typeCheck parses output, adding a package clause when it is a list of
// declarations, and type-checks it.
func typeCheck(t *testing.T, output string) *ast.File {
	t.Helper()

	src := output
	if !strings.HasPrefix(src, "package ") {
		src = "package p\n\n" + src
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "output.go", src, 0)
	require.NoError(t, err, src)

	_, err = (&types.Config{}).Check("p", fset, []*ast.File{file}, nil)
	require.NoError(t, err, src)
	return file
}

func fieldTags(file *ast.File) []reflect.StructTag {
	var tags []reflect.StructTag
	ast.Inspect(file, func(n ast.Node) bool {
		if field, ok := n.(*ast.Field); ok && field.Tag != nil {
			if value, err := strconv.Unquote(field.Tag.Value); err == nil {
				tags = append(tags, reflect.StructTag(value))
			}
		}
		return true
	})
	return tags
}

func TestRecompute_BacktickInKey(t *testing.T) {
	output, err := New(nil, nil).Recompute("{\"properties\": {\"a`b\": {\"type\": \"string\"}}}")
	require.NoError(t, err)

	tags := fieldTags(typeCheck(t, output))
	require.Len(t, tags, 1)
	assert.Equal(t, "a`b,omitempty", tags[0].Get("json"))
}

func TestRecompute_FieldNameCollisions(t *testing.T) {
	output, err := New(nil, nil).Recompute(`{"properties": {"Id2": {"type": "string"}, "Id": {"type": "string"}, "id": {"type": "string"}}}`)
	require.NoError(t, err)

	typeCheck(t, output)
	assert.Contains(t, output, "Id3 *string `json:\"id,omitempty\"`")
}

func TestRecompute_StructNameCollisions(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Inline = false
	cfg.Package = "models"

	// a.b, a_b and a_b1 all ask for names around RootAB
	output, err := New(cfg, nil).Recompute(`{
		"title": "root",
		"properties": {
			"a": {"type": "object", "properties": {"b": {"type": "object", "properties": {"x": {"type": "string"}}}}},
			"a_b": {"type": "object", "properties": {"y": {"type": "string"}}},
			"a_b1": {"type": "object", "properties": {"z": {"type": "string"}}}
		}
	}`)
	require.NoError(t, err)

	typeCheck(t, output)
}

func TestRecompute_FormattingDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Formatting.Enabled = false

	output, err := New(cfg, nil).Recompute(`{"properties": {"a": {"type": "string"}, "bbb": {"type": "integer"}}}`)
	require.NoError(t, err)
	assert.Contains(t, output, "\tA *string `json:\"a,omitempty\"`\n")
}

func TestFormat(t *testing.T) {
	p := New(nil, nil)

	formatted, err := p.Format(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", formatted)

	formatted, err = p.Format(`{b: [1, 2,], // trailing
	a: {}}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": [\n    1,\n    2\n  ],\n  \"a\": {}\n}", formatted)

	again, err := p.Format(formatted)
	require.NoError(t, err)
	assert.Equal(t, formatted, again, "format must be idempotent")
}

func TestFormat_Failure(t *testing.T) {
	_, err := New(nil, nil).Format(`{invalid json`)
	require.Error(t, err)

	var convErr *errors.ConversionError
	require.True(t, stderrors.As(err, &convErr))
	assert.Equal(t, errors.ErrorTypeParsing, convErr.Stage)
	assert.True(t, strings.HasPrefix(err.Error(), "Errors:\n"))
}

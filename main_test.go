package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStreams struct {
	*Streams
	out *bytes.Buffer
	err *bytes.Buffer
}

// newStreams returns streams with stdin piped from input. An empty input
// means stdin is a terminal.
func newStreams(input string) testStreams {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return testStreams{
		Streams: &Streams{
			In:    strings.NewReader(input),
			Out:   out,
			Err:   errOut,
			InTTY: input == "",
		},
		out: out,
		err: errOut,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConvert_FromFile(t *testing.T) {
	input := writeFile(t, "schema.json", `{"type": "object"}`)
	s := newStreams("")

	code := run([]string{"convert", "-i", input}, s.Streams)

	require.Equal(t, 0, code, s.err.String())
	assert.Equal(t, "type RootType struct{}\n", s.out.String())
}

func TestConvert_FromStdin(t *testing.T) {
	s := newStreams(`{
		// relaxed
		type: "object",
		properties: {name: {type: "string"}},
		required: ["name"],
	}`)

	code := run([]string{"convert", "--root-name", "person"}, s.Streams)

	require.Equal(t, 0, code, s.err.String())
	assert.Equal(t, "type Person struct {\n\tName string `json:\"name\" validate:\"required\"`\n}\n", s.out.String())
}

func TestConvert_ToFile(t *testing.T) {
	input := writeFile(t, "schema.json", `{"type": "array", "items": {"type": "integer"}}`)
	output := filepath.Join(t.TempDir(), "out.go")
	s := newStreams("")

	code := run([]string{"convert", "-i", input, "-o", output}, s.Streams)
	require.Equal(t, 0, code, s.err.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "type RootType []int64\n", string(data))
	assert.Contains(t, s.err.String(), "Written to "+output)
	assert.Empty(t, s.out.String())
}

func TestConvert_InvalidSchema(t *testing.T) {
	s := newStreams(`{invalid json`)

	code := run([]string{"convert"}, s.Streams)

	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(s.err.String(), "Errors:\n"), s.err.String())
	assert.Empty(t, s.out.String())
}

func TestConvert_Strict(t *testing.T) {
	s := newStreams(`{"type": "object", "properties": {"a": {"type": "nope"}}}`)

	code := run([]string{"convert", "--strict"}, s.Streams)

	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(s.err.String(), "Errors:\n"), s.err.String())
}

func TestConvert_NoInput(t *testing.T) {
	s := newStreams("")

	code := run([]string{"convert"}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "Input error: no input provided")
}

func TestConvert_MissingFile(t *testing.T) {
	s := newStreams("")

	code := run([]string{"convert", "-i", filepath.Join(t.TempDir(), "missing.json")}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "not found")
}

func TestConvert_ConfigFile(t *testing.T) {
	cfgPath := writeFile(t, ".schemaplay.yml", "root_name: Settings\ninline: false\npackage: models\n")
	s := newStreams(`{"type": "object", "properties": {"port": {"type": "integer"}}, "required": ["port"]}`)

	code := run([]string{"convert", "--config", cfgPath}, s.Streams)

	require.Equal(t, 0, code, s.err.String())
	assert.True(t, strings.HasPrefix(s.out.String(), "package models\n"), s.out.String())
	assert.Contains(t, s.out.String(), "type Settings struct {")
}

func TestConvert_InvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, ".schemaplay.yml", "package: func\n")
	s := newStreams(`{"type": "object"}`)

	code := run([]string{"convert", "--config", cfgPath}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "Configuration error")
}

func TestConvert_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "schemaplay.log")
	s := newStreams(`{"type": "object"}`)

	code := run([]string{"convert", "--log-file", logPath, "--log-level", "debug", "--log-format", "json"}, s.Streams)
	require.Equal(t, 0, code, s.err.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recomputed output"`)
}

func TestFmt_Stdout(t *testing.T) {
	s := newStreams(`{"a":1}`)

	code := run([]string{"fmt"}, s.Streams)

	require.Equal(t, 0, code, s.err.String())
	assert.Equal(t, "{\n  \"a\": 1\n}\n", s.out.String())
}

func TestFmt_Write(t *testing.T) {
	input := writeFile(t, "schema.json", `{type: "object", /* relaxed */}`)
	s := newStreams("")

	code := run([]string{"fmt", "-i", input, "-w"}, s.Streams)
	require.Equal(t, 0, code, s.err.String())

	data, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"type\": \"object\"\n}\n", string(data))
}

func TestFmt_WriteNeedsInput(t *testing.T) {
	s := newStreams(`{}`)

	code := run([]string{"fmt", "-w"}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "--write needs --input")
}

func TestConfigSchema(t *testing.T) {
	s := newStreams("")

	code := run([]string{"config-schema"}, s.Streams)

	require.Equal(t, 0, code, s.err.String())
	assert.Contains(t, s.out.String(), `"root_name"`)
	assert.Contains(t, s.out.String(), `"$schema"`)
}

func TestPlayground_NeedsTerminal(t *testing.T) {
	s := newStreams("")

	code := run([]string{}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "interactive terminal")
}

func TestVersion(t *testing.T) {
	s := newStreams("")

	code := run([]string{"--version"}, s.Streams)

	assert.Equal(t, 0, code)
	assert.Equal(t, "schemaplay version "+Version+"\n", s.out.String())
}

func TestUnknownFlag(t *testing.T) {
	s := newStreams("")

	code := run([]string{"convert", "--nope"}, s.Streams)

	assert.Equal(t, 1, code)
	assert.Contains(t, s.err.String(), "schemaplay: error:")
}

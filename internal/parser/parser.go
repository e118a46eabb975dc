// Package parser reads lenient JSON: standard JSON plus comments, trailing
// commas and unquoted object keys.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	stderrors "errors" // Standard errors package

	"github.com/tailscale/hujson"

	"github.com/mcncl/schemaplay/internal/errors" // Custom errors package
)

// Document is a parsed lenient JSON value, held as standard JSON.
type Document struct {
	raw []byte
}

// Bytes returns the document as compact standard JSON.
func (d Document) Bytes() []byte {
	return d.raw
}

// Indent returns the canonical form of the document: standard JSON with
// 2-space indentation, keys and number literals in source order.
func (d Document) Indent() (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.raw, "", "  "); err != nil {
		return "", fmt.Errorf("failed to indent JSON: %w", err)
	}
	return buf.String(), nil
}

// Decode unmarshals the document into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.raw, v)
}

// SyntaxError reports malformed lenient JSON. Its message is the
// underlying parser message.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() []error {
	return []error{e.Err, errors.ErrInvalidJSON}
}

// Parse reads lenient JSON from an io.Reader.
func Parse(reader io.Reader) (Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return Document{}, errors.NewInputError("failed to read input", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses lenient JSON bytes.
func ParseBytes(data []byte) (Document, error) {
	data = stripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, &SyntaxError{Err: errors.ErrEmptyInput}
	}

	value, err := hujson.Parse(quoteKeys(data))
	if err != nil {
		return Document{}, &SyntaxError{Err: err}
	}
	value.Standardize()

	var buf bytes.Buffer
	if err := json.Compact(&buf, value.Pack()); err != nil {
		return Document{}, &SyntaxError{Err: err}
	}

	return Document{raw: buf.Bytes()}, nil
}

// ParseString parses lenient JSON from a string
func ParseString(s string) (Document, error) {
	return ParseBytes([]byte(s))
}

// ParseFile parses lenient JSON from a file path
func ParseFile(filePath string) (Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	if len(data) == 0 {
		return Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return ParseBytes(data)
}

// ReadFile returns the raw text of a schema file, applying the same input
// checks as ParseFile without parsing it.
func ReadFile(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return "", errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return "", errors.NewInputError(fmt.Sprintf("failed to open file '%s'", filePath), err)
	}
	return string(stripBOM(data)), nil
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
}

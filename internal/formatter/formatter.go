// Package formatter runs gofmt over generated source.
package formatter

import (
	"fmt"
	"go/format"
	"strings"

	"golang.org/x/tools/imports"
)

// Formatter formats generated Go source.
type Formatter struct {
	options *imports.Options
}

// NewFormatter creates a new Formatter instance
func NewFormatter() *Formatter {
	return &Formatter{
		options: &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		},
	}
}

// Format returns code in gofmt style. The code may be a whole file or a
// list of declarations without a package clause. In a whole file the
// imports are also grouped, standard library first.
func (f *Formatter) Format(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", nil
	}

	if !hasPackageClause(code) {
		formatted, err := format.Source([]byte(code))
		if err != nil {
			return "", fmt.Errorf("failed to parse Go code: %w", err)
		}
		return string(formatted), nil
	}

	formatted, err := imports.Process("", []byte(code), f.options)
	if err != nil {
		return "", fmt.Errorf("failed to parse Go code: %w", err)
	}
	return string(formatted), nil
}

func hasPackageClause(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return strings.HasPrefix(line, "package ")
	}
	return false
}

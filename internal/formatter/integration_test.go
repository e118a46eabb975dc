package formatter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/schemaplay/internal/generator"
	"github.com/mcncl/schemaplay/internal/schema"
)

func TestIntegration_SchemaGeneratorFormatter(t *testing.T) {
	s, err := schema.ParseString(`{
		"type": "object",
		"required": ["user_id"],
		"properties": {
			"user_id": {"type": "integer"},
			"username": {"type": "string", "minLength": 3},
			"profile": {
				"type": "object",
				"properties": {
					"full_name": {"type": "string"},
					"email": {"type": "string", "format": "email"}
				}
			}
		}
	}`)
	require.NoError(t, err)

	result, err := schema.NewConverter(s).Convert("User")
	require.NoError(t, err)

	gen := generator.NewGenerator()
	formatter := NewFormatter()

	inline, err := gen.Inline(result)
	require.NoError(t, err)

	formatted, err := formatter.Format(inline)
	require.NoError(t, err)

	expectedOutput := "type User struct {\n" +
		"\tUserId   int64   `json:\"user_id\" validate:\"required\"`\n" +
		"\tUsername *string `json:\"username,omitempty\" validate:\"omitempty,min=3\"`\n" +
		"\tProfile  *struct {\n" +
		"\t\tFullName *string `json:\"full_name,omitempty\"`\n" +
		"\t\tEmail    *string `json:\"email,omitempty\" validate:\"omitempty,email\"`\n" +
		"\t} `json:\"profile,omitempty\"`\n" +
		"}\n"
	assert.Equal(t, expectedOutput, formatted)

	again, err := formatter.Format(formatted)
	require.NoError(t, err)
	assert.Equal(t, formatted, again, "formatting must be stable")

	named, err := gen.GenerateStructs(result, "models")
	require.NoError(t, err)

	formattedNamed, err := formatter.Format(named)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(formattedNamed, "package models\n"))
	assert.Contains(t, formattedNamed, "type UserProfile struct {")
	assert.Contains(t, formattedNamed, "Profile  *UserProfile")
}

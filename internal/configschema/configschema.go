// Package configschema describes the schemaplay config file as a JSON
// Schema, for editor completion and validation of .schemaplay.yml.
package configschema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/mcncl/schemaplay/internal/config"
)

// ID is the $id of the generated schema.
const ID = "https://raw.githubusercontent.com/mcncl/schemaplay/main/schemaplay.schema.json"

// Generate creates a JSON Schema from the Config type.
func Generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Property names follow the yaml keys of the config file
		FieldNameTag: "yaml",
	}

	s := r.Reflect(&config.Config{})

	s.ID = ID
	s.Title = "schemaplay"
	s.Description = "Schema for schemaplay configuration files (.schemaplay.yml)"

	return json.MarshalIndent(s, "", "  ")
}

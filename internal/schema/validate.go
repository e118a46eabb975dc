package schema

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mcncl/schemaplay/internal/config"
)

// resourceURL is where the document is registered for compilation. No
// loader serves the mem scheme, so refs to other documents fail instead of
// reaching the filesystem or network.
const resourceURL = "mem://schemaplay/schema.json"

var drafts = map[string]*jsonschema.Draft{
	config.Draft4:    jsonschema.Draft4,
	config.Draft6:    jsonschema.Draft6,
	config.Draft7:    jsonschema.Draft7,
	config.Draft2019: jsonschema.Draft2019,
	config.Draft2020: jsonschema.Draft2020,
}

// Validate checks a JSON Schema document against its metaschema. The
// document's $schema wins over draft, which defaults to draft-07.
func Validate(data []byte, draft string) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	d, ok := drafts[draft]
	if !ok {
		if draft != "" {
			return fmt.Errorf("unknown draft %q", draft)
		}
		d = jsonschema.Draft7
	}

	c := jsonschema.NewCompiler()
	c.DefaultDraft(d)
	if err := c.AddResource(resourceURL, doc); err != nil {
		return fmt.Errorf("failed to add schema: %w", err)
	}
	if _, err := c.Compile(resourceURL); err != nil {
		return fmt.Errorf("schema does not match its metaschema: %w", err)
	}
	return nil
}

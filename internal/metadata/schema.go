package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const metadataSchema = `{
  "type": "object",
  "required": ["title", "author", "genre", "description", "language"],
  "properties": {
    "title": {"type": "string"},
    "author": {"type": "string"},
    "genre": {"type": "string"},
    "description": {"type": "string"},
    "language": {"type": "string"}
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("metadata.json", strings.NewReader(metadataSchema)); err != nil {
		return nil, fmt.Errorf("failed to load metadata schema: %w", err)
	}
	schema, err := compiler.Compile("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile metadata schema: %w", err)
	}
	return schema, nil
})

func validateMetadata(raw json.RawMessage) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode metadata for validation: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("metadata does not match schema: %w", err)
	}
	return nil
}

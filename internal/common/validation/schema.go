// Package validation checks external JSON payloads against schemas before
// unmarshalling. A schema failure carries the same weight as a parse failure.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateJSON validates a raw JSON document against a JSON-schema document.
// Returns nil when the document conforms.
func ValidateJSON(raw []byte, schema string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("payload does not conform to schema: %s", strings.Join(msgs, "; "))
}

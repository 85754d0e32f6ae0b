package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

// ValidateChatSettings validates per-chat settings against a source's
// JSON Schema file
func ValidateChatSettings(schemaPath string, settings map[string]interface{}) error {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaData)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	result := schema.Validate(settings)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return fmt.Errorf("settings validation failed: %s", strings.Join(errorMessages, "; "))
	}

	return nil
}

package sources

import (
	"os"
	"path/filepath"
	"testing"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "token": {"type": "string", "minLength": 1},
    "bullet": {"type": "string"}
  },
  "required": ["token"],
  "additionalProperties": false
}`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.schema.json")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateChatSettings(t *testing.T) {
	path := writeSchema(t)

	err := ValidateChatSettings(path, map[string]interface{}{
		"token":  "tok-123",
		"bullet": "- ",
	})
	if err != nil {
		t.Errorf("expected valid settings, got %v", err)
	}
}

func TestValidateChatSettingsRejectsInvalid(t *testing.T) {
	path := writeSchema(t)

	tests := []struct {
		name     string
		settings map[string]interface{}
	}{
		{"missing token", map[string]interface{}{"bullet": "- "}},
		{"wrong type", map[string]interface{}{"token": 42}},
		{"unknown key", map[string]interface{}{"token": "t", "extra": true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateChatSettings(path, tt.settings); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

package briefings

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XG2020/zaobao/internal/sources"
	"github.com/gin-gonic/gin"
)

func writeTestSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.schema.json")
	schema := `{"type":"object","properties":{"bullet":{"type":"string"}},"additionalProperties":false}`
	if err := os.WriteFile(path, []byte(schema), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// Request validation runs before any database access, so these paths
// are testable with nil collaborators.

func TestCreateRunHandlerRejectsMissingChatKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/briefings", CreateRunHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/briefings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUpsertSubscriptionHandlerUnknownSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := sources.NewRegistry()
	r := gin.New()
	r.POST("/api/subscriptions", UpsertSubscriptionHandler(nil, registry, nil))

	body := `{"chat_key":"group-1","source_name":"nonexistent"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown source, got %d", w.Code)
	}
}

func TestUpsertSubscriptionHandlerInvalidSettings(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := sources.NewRegistry()
	schemaPath := writeTestSchema(t)
	if err := registry.Register(&sources.SourceMetadata{
		Name:               "zaobao",
		Version:            "1.0.0",
		Endpoint:           "https://example.com",
		SettingsSchemaPath: schemaPath,
	}); err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.POST("/api/subscriptions", UpsertSubscriptionHandler(nil, registry, nil))

	body := `{"chat_key":"group-1","settings":{"bullet":42}}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for invalid settings, got %d", w.Code)
	}
}

package sources

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	meta := &SourceMetadata{Name: "zaobao", Version: "1.0.0", Endpoint: "https://example.com"}
	if err := r.Register(meta); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := r.Get("zaobao")
	if !ok {
		t.Fatal("expected source to be found")
	}
	if got.Name != "zaobao" {
		t.Errorf("expected zaobao, got %s", got.Name)
	}

	if err := r.Register(meta); err == nil {
		t.Error("expected error on duplicate registration")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"weather", "zaobao", "almanac"} {
		if err := r.Register(&SourceMetadata{Name: name, Version: "1", Endpoint: "https://example.com"}); err != nil {
			t.Fatal(err)
		}
	}

	list := r.List()
	if len(list) != 3 || r.Count() != 3 {
		t.Fatalf("expected 3 sources, got %d", len(list))
	}
	want := []string{"almanac", "weather", "zaobao"}
	for i, meta := range list {
		if meta.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], meta.Name)
		}
	}
}

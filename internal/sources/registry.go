package sources

import (
	"fmt"
	"log"
	"sort"
)

// Registry holds discovered briefing sources in memory, indexed by name.
type Registry struct {
	sources map[string]*SourceMetadata
}

// NewRegistry creates a new empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]*SourceMetadata),
	}
}

// Register adds a source to the registry.
// Returns an error if a source with the same name is already registered.
func (r *Registry) Register(meta *SourceMetadata) error {
	if _, exists := r.sources[meta.Name]; exists {
		return fmt.Errorf("source already registered: %s", meta.Name)
	}
	r.sources[meta.Name] = meta
	return nil
}

// Get retrieves a source by name.
func (r *Registry) Get(name string) (*SourceMetadata, bool) {
	meta, ok := r.sources[name]
	return meta, ok
}

// List returns all registered sources as a slice, sorted by name
// for deterministic ordering.
func (r *Registry) List() []*SourceMetadata {
	list := make([]*SourceMetadata, 0, len(r.sources))
	for _, meta := range r.sources {
		list = append(list, meta)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	return len(r.sources)
}

// LoadRegistry discovers sources from the specified directory and
// registers them in a new Registry.
//
// Duplicate source names are logged and skipped. An empty registry
// is not an error (no sources found is valid).
func LoadRegistry(sourceDir string) (*Registry, error) {
	discovered, err := DiscoverSources(sourceDir)
	if err != nil {
		return nil, err
	}

	registry := NewRegistry()
	for _, meta := range discovered {
		if err := registry.Register(meta); err != nil {
			log.Printf("Warning: duplicate source name, skipping %s: %v", meta.Name, err)
			continue
		}
	}

	return registry, nil
}

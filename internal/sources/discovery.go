package sources

import (
	"log"
	"os"
	"path/filepath"
)

// DiscoverSources scans the specified directory for source subdirectories
// containing source.yaml manifest files. Invalid manifests are logged and
// skipped (not fatal) to allow partial discovery.
//
// Returns all successfully loaded source metadata.
func DiscoverSources(sourceDir string) ([]*SourceMetadata, error) {
	var discovered []*SourceMetadata

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		manifestPath := filepath.Join(sourceDir, entry.Name(), "source.yaml")

		if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
			continue // skip directories without source.yaml
		}

		meta, err := LoadSourceMetadata(manifestPath)
		if err != nil {
			log.Printf("Warning: failed to load source from %s: %v", entry.Name(), err)
			continue
		}

		// Schema paths in manifests are relative to the source directory
		if meta.SettingsSchemaPath != "" && !filepath.IsAbs(meta.SettingsSchemaPath) {
			meta.SettingsSchemaPath = filepath.Join(sourceDir, entry.Name(), meta.SettingsSchemaPath)
		}

		discovered = append(discovered, meta)
	}

	return discovered, nil
}

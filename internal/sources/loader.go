package sources

import (
	"encoding/json"
	"log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InitSources discovers briefing sources from the specified directory,
// syncs their metadata to the database, and returns a populated registry.
//
// Called at startup to:
// 1. Discover all sources from the source directory
// 2. Sync discovered metadata to the database (upsert pattern)
// 3. Return the in-memory registry for use by the application
//
// Non-fatal: logs warnings but does not fail if individual sources have issues.
func InitSources(db *gorm.DB, sourceDir string) (*Registry, error) {
	registry, err := LoadRegistry(sourceDir)
	if err != nil {
		return nil, err
	}

	log.Printf("Discovered %d source(s) from %s", registry.Count(), sourceDir)

	for _, meta := range registry.List() {
		if err := syncSourceToDB(db, meta); err != nil {
			log.Printf("Warning: failed to sync source %s to database: %v", meta.Name, err)
			continue
		}
		log.Printf("Synced source to database: %s (version %s)", meta.Name, meta.Version)
	}

	return registry, nil
}

// syncSourceToDB persists or updates a source's metadata in the database.
// Uses an upsert pattern: creates if new, updates if already exists.
func syncSourceToDB(db *gorm.DB, meta *SourceMetadata) error {
	defaultConfigJSON, err := json.Marshal(meta.DefaultConfig)
	if err != nil {
		return err
	}

	var dbSource Source
	result := db.Where("name = ?", meta.Name).First(&dbSource)

	if result.Error == gorm.ErrRecordNotFound {
		dbSource = Source{
			Name:               meta.Name,
			Description:        meta.Description,
			Owner:              meta.Owner,
			Version:            meta.Version,
			SchemaVersion:      meta.SchemaVersion,
			Endpoint:           meta.Endpoint,
			DefaultConfig:      datatypes.JSON(defaultConfigJSON),
			SettingsSchemaPath: meta.SettingsSchemaPath,
			Enabled:            true,
		}
		return db.Create(&dbSource).Error
	} else if result.Error != nil {
		return result.Error
	}

	updates := map[string]interface{}{
		"description":          meta.Description,
		"owner":                meta.Owner,
		"version":              meta.Version,
		"schema_version":       meta.SchemaVersion,
		"endpoint":             meta.Endpoint,
		"default_config":       datatypes.JSON(defaultConfigJSON),
		"settings_schema_path": meta.SettingsSchemaPath,
	}

	return db.Model(&dbSource).Updates(updates).Error
}

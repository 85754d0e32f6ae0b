package sources

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Source persists a discovered briefing source's metadata
type Source struct {
	gorm.Model
	Name               string `gorm:"uniqueIndex;not null"`
	Description        string `gorm:"type:text"`
	Owner              string
	Version            string         `gorm:"not null"`
	SchemaVersion      string         `gorm:"column:schema_version;not null;default:'v1'"`
	Endpoint           string         `gorm:"not null"`
	DefaultConfig      datatypes.JSON `gorm:"type:jsonb;column:default_config"`
	SettingsSchemaPath string         `gorm:"column:settings_schema_path"`
	Enabled            bool           `gorm:"default:true"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BriefingRun status constants
const (
	BriefingRunStatusPending    = "pending"
	BriefingRunStatusProcessing = "processing"
	BriefingRunStatusCompleted  = "completed"
	BriefingRunStatusFailed     = "failed"
)

// BriefingRun tracks a single fetch-and-deliver invocation. Content
// holds the rendered text plus the normalized payload fields.
type BriefingRun struct {
	gorm.Model
	RunID        string         `gorm:"uniqueIndex;not null"`
	ChatKey      string         `gorm:"not null;index"`
	SourceName   string         `gorm:"not null;default:'zaobao'"`
	Status       string         `gorm:"not null;default:'pending';index"`
	Content      datatypes.JSON `gorm:"type:jsonb"`
	ErrorMessage string         `gorm:"column:error_message;type:text"`
	GeneratedAt  *time.Time
	DeliveredAt  *time.Time
}

package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChatSubscription binds a chat to a briefing source. TokenCiphertext
// is the AES-GCM encrypted upstream API token; the plaintext never
// touches the database.
type ChatSubscription struct {
	gorm.Model
	ChatKey         string         `gorm:"not null;uniqueIndex:idx_chat_source"`
	SourceName      string         `gorm:"not null;uniqueIndex:idx_chat_source;default:'zaobao'"`
	Settings        datatypes.JSON `gorm:"type:jsonb"`
	TokenCiphertext string         `gorm:"column:token_ciphertext;type:text"`
	Enabled         bool           `gorm:"default:true;index"`
}

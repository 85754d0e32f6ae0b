package database

import (
	"log"

	"github.com/XG2020/zaobao/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedDevData populates the database with development test data.
// Idempotent: skips if data already exists.
func SeedDevData(db *gorm.DB) error {
	var existing models.ChatSubscription
	result := db.Where("chat_key = ?", "dev-chat").First(&existing)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	subscription := models.ChatSubscription{
		ChatKey:    "dev-chat",
		SourceName: "zaobao",
		Settings:   datatypes.JSON([]byte(`{"bullet":"","empty_news_policy":"placeholder"}`)),
		Enabled:    true,
	}

	if err := db.Create(&subscription).Error; err != nil {
		return err
	}

	// Sample completed run so the API has something to return
	completed := models.BriefingRun{
		RunID:      uuid.New().String(),
		ChatKey:    "dev-chat",
		SourceName: "zaobao",
		Status:     models.BriefingRunStatusCompleted,
		Content: datatypes.JSON([]byte(`{
			"text": "【每日早报】\n今天是 2024-05-01\n示例新闻一\n示例新闻二\n保持积极。",
			"date": "2024-05-01",
			"news": ["示例新闻一", "示例新闻二"],
			"weiyu": "保持积极。"
		}`)),
	}

	if err := db.Create(&completed).Error; err != nil {
		return err
	}

	// Sample pending run
	pending := models.BriefingRun{
		RunID:      uuid.New().String(),
		ChatKey:    "dev-chat",
		SourceName: "zaobao",
		Status:     models.BriefingRunStatusPending,
	}

	if err := db.Create(&pending).Error; err != nil {
		return err
	}

	log.Println("Seeded dev data: 1 subscription, 2 briefing runs")
	return nil
}

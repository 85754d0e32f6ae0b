package streams

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/XG2020/zaobao/internal/models"
	"gorm.io/gorm"
)

// HandleDeliveryAck returns a handler function that stamps BriefingRun
// records based on chat adapter acknowledgements
func HandleDeliveryAck(db *gorm.DB) func(DeliveryAck) error {
	return func(ack DeliveryAck) error {
		var run models.BriefingRun

		// Find run by RunID field (not GORM ID)
		if err := db.Where("run_id = ?", ack.RunID).First(&run).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("briefing run not found: %s", ack.RunID)
			}
			return fmt.Errorf("failed to find briefing run: %w", err)
		}

		now := time.Now()

		if ack.Status == "delivered" {
			if err := db.Model(&run).Update("delivered_at", now).Error; err != nil {
				return fmt.Errorf("failed to update briefing run: %w", err)
			}

			slog.Info("Briefing delivery acknowledged",
				"run_id", ack.RunID,
				"message_id", ack.MessageID,
			)
			return nil
		}

		if ack.Status == "failed" {
			updates := map[string]interface{}{
				"status":        models.BriefingRunStatusFailed,
				"error_message": ack.Error,
			}
			if err := db.Model(&run).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update briefing run: %w", err)
			}

			slog.Error("Briefing delivery failed",
				"run_id", ack.RunID,
				"error", ack.Error,
			)
			return nil
		}

		return fmt.Errorf("unknown ack status: %s", ack.Status)
	}
}

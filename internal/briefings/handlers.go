// Package briefings exposes the JSON API for triggering briefing runs
// and managing chat subscriptions.
package briefings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/XG2020/zaobao/internal/crypto"
	"github.com/XG2020/zaobao/internal/models"
	"github.com/XG2020/zaobao/internal/sources"
	"github.com/XG2020/zaobao/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// runResponse is the API view of a briefing run.
type runResponse struct {
	RunID        string          `json:"run_id"`
	ChatKey      string          `json:"chat_key"`
	SourceName   string          `json:"source_name"`
	Status       string          `json:"status"`
	Content      json.RawMessage `json:"content,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	GeneratedAt  *time.Time      `json:"generated_at,omitempty"`
	DeliveredAt  *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func toRunResponse(run models.BriefingRun) runResponse {
	return runResponse{
		RunID:        run.RunID,
		ChatKey:      run.ChatKey,
		SourceName:   run.SourceName,
		Status:       run.Status,
		Content:      json.RawMessage(run.Content),
		ErrorMessage: run.ErrorMessage,
		GeneratedAt:  run.GeneratedAt,
		DeliveredAt:  run.DeliveredAt,
		CreatedAt:    run.CreatedAt,
	}
}

// CreateRunHandler creates a new briefing run and enqueues the fetch task
func CreateRunHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ChatKey    string `json:"chat_key" binding:"required"`
			SourceName string `json:"source_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chat_key is required"})
			return
		}
		if req.SourceName == "" {
			req.SourceName = "zaobao"
		}

		// Check for an existing pending/processing run for this chat
		var existing models.BriefingRun
		result := db.Where("chat_key = ? AND source_name = ? AND status IN ?",
			req.ChatKey, req.SourceName,
			[]string{models.BriefingRunStatusPending, models.BriefingRunStatusProcessing}).
			First(&existing)
		if result.Error == nil {
			// Return the in-flight run instead of creating a duplicate
			c.JSON(http.StatusOK, toRunResponse(existing))
			return
		}

		run := models.BriefingRun{
			RunID:      uuid.New().String(),
			ChatKey:    req.ChatKey,
			SourceName: req.SourceName,
			Status:     models.BriefingRunStatusPending,
		}

		if err := db.Create(&run).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create briefing run"})
			return
		}

		if err := worker.EnqueueFetchBriefing(run.RunID); err != nil {
			db.Model(&run).Updates(map[string]interface{}{
				"status":        models.BriefingRunStatusFailed,
				"error_message": "Failed to enqueue fetch task",
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue briefing fetch"})
			return
		}

		c.JSON(http.StatusAccepted, toRunResponse(run))
	}
}

// GetRunHandler returns the current status and content of a briefing run
func GetRunHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.Param("run_id")

		var run models.BriefingRun
		if err := db.Where("run_id = ?", runID).First(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "briefing run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load briefing run"})
			return
		}

		c.JSON(http.StatusOK, toRunResponse(run))
	}
}

// subscriptionResponse is the API view of a chat subscription. The
// upstream token is write-only: stored encrypted, never echoed.
type subscriptionResponse struct {
	ChatKey    string          `json:"chat_key"`
	SourceName string          `json:"source_name"`
	Settings   json.RawMessage `json:"settings,omitempty"`
	HasToken   bool            `json:"has_token"`
	Enabled    bool            `json:"enabled"`
}

func toSubscriptionResponse(sub models.ChatSubscription) subscriptionResponse {
	return subscriptionResponse{
		ChatKey:    sub.ChatKey,
		SourceName: sub.SourceName,
		Settings:   json.RawMessage(sub.Settings),
		HasToken:   sub.TokenCiphertext != "",
		Enabled:    sub.Enabled,
	}
}

// UpsertSubscriptionHandler creates or updates a chat subscription.
// Settings are validated against the source's JSON schema; the token
// setting is pulled out and stored encrypted.
func UpsertSubscriptionHandler(db *gorm.DB, registry *sources.Registry, encryptor *crypto.TokenEncryptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ChatKey    string                 `json:"chat_key" binding:"required"`
			SourceName string                 `json:"source_name"`
			Settings   map[string]interface{} `json:"settings"`
			Enabled    *bool                  `json:"enabled"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chat_key is required"})
			return
		}
		if req.SourceName == "" {
			req.SourceName = "zaobao"
		}

		meta, ok := registry.Get(req.SourceName)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown source: " + req.SourceName})
			return
		}

		if req.Settings == nil {
			req.Settings = map[string]interface{}{}
		}
		if meta.SettingsSchemaPath != "" {
			if err := sources.ValidateChatSettings(meta.SettingsSchemaPath, req.Settings); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
		}

		// Pull the token out of settings; it is stored encrypted, not as JSON
		var tokenCiphertext string
		if token, ok := req.Settings["token"].(string); ok && token != "" {
			if encryptor == nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "token encryption is not configured"})
				return
			}
			ciphertext, err := encryptor.Encrypt(token)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encrypt token"})
				return
			}
			tokenCiphertext = ciphertext
			delete(req.Settings, "token")
		}

		settingsJSON, err := json.Marshal(req.Settings)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode settings"})
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}

		var sub models.ChatSubscription
		result := db.Where("chat_key = ? AND source_name = ?", req.ChatKey, req.SourceName).First(&sub)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sub = models.ChatSubscription{
				ChatKey:         req.ChatKey,
				SourceName:      req.SourceName,
				Settings:        datatypes.JSON(settingsJSON),
				TokenCiphertext: tokenCiphertext,
				Enabled:         enabled,
			}
			if err := db.Create(&sub).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create subscription"})
				return
			}
			c.JSON(http.StatusCreated, toSubscriptionResponse(sub))
			return
		} else if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load subscription"})
			return
		}

		updates := map[string]interface{}{
			"settings": datatypes.JSON(settingsJSON),
			"enabled":  enabled,
		}
		if tokenCiphertext != "" {
			updates["token_ciphertext"] = tokenCiphertext
		}
		if err := db.Model(&sub).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update subscription"})
			return
		}

		db.Where("chat_key = ? AND source_name = ?", req.ChatKey, req.SourceName).First(&sub)
		c.JSON(http.StatusOK, toSubscriptionResponse(sub))
	}
}

// ListSubscriptionsHandler returns all chat subscriptions
func ListSubscriptionsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var subs []models.ChatSubscription
		if err := db.Order("chat_key").Find(&subs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list subscriptions"})
			return
		}

		out := make([]subscriptionResponse, 0, len(subs))
		for _, sub := range subs {
			out = append(out, toSubscriptionResponse(sub))
		}
		c.JSON(http.StatusOK, out)
	}
}

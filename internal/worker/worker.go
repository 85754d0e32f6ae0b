package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/XG2020/zaobao/internal/chat"
	"github.com/XG2020/zaobao/internal/config"
	"github.com/XG2020/zaobao/internal/crypto"
	"github.com/XG2020/zaobao/internal/models"
	"github.com/XG2020/zaobao/internal/streams"
	"github.com/XG2020/zaobao/internal/zaobao"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deps bundles the collaborators the task handlers need. ChatClient,
// Publisher and Encryptor may be nil when the deployment does not
// configure them; handlers degrade accordingly.
type Deps struct {
	DB         *gorm.DB
	ChatClient *chat.Client
	Publisher  *streams.Publisher
	Encryptor  *crypto.TokenEncryptor
}

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) {
	a.logger.Debug(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Info(args ...interface{}) {
	a.logger.Info(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Warn(args ...interface{}) {
	a.logger.Warn(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Error(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
}

func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Run starts the Asynq worker server and blocks until shutdown signal.
// Use this for standalone worker mode.
func Run(cfg *config.Config, deps Deps) error {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return err
	}

	// Run blocks and handles its own signal interception
	return srv.Run(mux)
}

// Start starts the Asynq worker in non-blocking mode and returns a stop function.
// Use this for embedded mode so the caller can coordinate shutdown.
func Start(cfg *config.Config, deps Deps) (stop func(), err error) {
	srv, mux, err := newServer(cfg, deps)
	if err != nil {
		return nil, err
	}
	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	return func() { srv.Shutdown() }, nil
}

func newServer(cfg *config.Config, deps Deps) (*asynq.Server, *asynq.ServeMux, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     5,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFetchBriefing, handleFetchBriefing(logger, cfg, deps))
	mux.HandleFunc(TaskScheduledBriefing, handleScheduledBriefing(logger, deps.DB))

	logger.Info("Worker starting", "concurrency", 5, "redis", cfg.RedisURL)
	return srv, mux, nil
}

// runContent is the JSONB shape persisted on completed runs.
type runContent struct {
	Text  string   `json:"text"`
	Date  string   `json:"date"`
	News  []string `json:"news"`
	Weiyu string   `json:"weiyu"`
	Audio string   `json:"audio,omitempty"`
}

// handleFetchBriefing processes briefing runs: fetch from the upstream API,
// render, persist, and deliver to the run's chat.
func handleFetchBriefing(logger *slog.Logger, cfg *config.Config, deps Deps) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload struct {
			RunID string `json:"run_id"`
		}
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			// Invalid payload - don't retry
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		var run models.BriefingRun
		if err := deps.DB.WithContext(ctx).Where("run_id = ?", payload.RunID).First(&run).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Briefing run not found", "run_id", payload.RunID)
				return fmt.Errorf("briefing run not found: %w", asynq.SkipRetry)
			}
			// Database error - retryable
			return fmt.Errorf("failed to fetch briefing run: %w", err)
		}

		logger.Info(
			"Processing briefing:fetch task",
			"run_id", payload.RunID,
			"chat_key", run.ChatKey,
		)

		deps.DB.Model(&run).Update("status", models.BriefingRunStatusProcessing)

		fetchCfg, renderOpts, err := resolveFetchConfig(cfg, deps, run.ChatKey, run.SourceName)
		if err != nil {
			// Misconfigured subscription - terminal until fixed
			deps.DB.Model(&run).Updates(map[string]interface{}{
				"status":        models.BriefingRunStatusFailed,
				"error_message": err.Error(),
			})
			return fmt.Errorf("failed to resolve fetch config: %w", asynq.SkipRetry)
		}

		fetcher := zaobao.NewClient(fetchCfg, renderOpts)

		briefing, ferr := fetcher.Fetch(ctx)
		var text string
		if ferr == nil {
			text, ferr = zaobao.Render(briefing, renderOpts)
		}
		if ferr != nil {
			// Upstream/validation failures are terminal per invocation:
			// the run records the user-facing message, no retry.
			deps.DB.Model(&run).Updates(map[string]interface{}{
				"status":        models.BriefingRunStatusFailed,
				"error_message": ferr.Message,
			})
			logger.Error(
				"Briefing fetch failed",
				"run_id", payload.RunID,
				"kind", string(ferr.Kind),
				"error", ferr.Error(),
			)
			return fmt.Errorf("briefing fetch failed (%s): %w", ferr.Kind, asynq.SkipRetry)
		}

		content := runContent{
			Text:  text,
			Date:  briefing.Date,
			News:  briefing.News.Items,
			Weiyu: briefing.Weiyu,
		}
		if briefing.Audio != nil {
			content.Audio = *briefing.Audio
		}
		jsonBytes, err := json.Marshal(content)
		if err != nil {
			deps.DB.Model(&run).Updates(map[string]interface{}{
				"status":        models.BriefingRunStatusFailed,
				"error_message": "Failed to marshal content",
			})
			return fmt.Errorf("failed to marshal content: %w", asynq.SkipRetry)
		}

		now := time.Now()
		if err := deps.DB.Model(&run).Updates(map[string]interface{}{
			"status":        models.BriefingRunStatusCompleted,
			"content":       datatypes.JSON(jsonBytes),
			"generated_at":  now,
			"error_message": "",
		}).Error; err != nil {
			return fmt.Errorf("failed to update briefing run: %w", err)
		}

		deliver(ctx, logger, deps, &run, text)

		logger.Info(
			"Briefing run completed",
			"run_id", payload.RunID,
		)

		return nil
	}
}

// deliver hands the rendered text to the configured delivery paths. The
// webhook path stamps DeliveredAt directly; the stream path leaves the
// stamp to the ack consumer. Delivery failure does not fail the run:
// the content is generated and queryable regardless.
func deliver(ctx context.Context, logger *slog.Logger, deps Deps, run *models.BriefingRun, text string) {
	if deps.Publisher != nil {
		msgID, err := deps.Publisher.PublishDelivery(ctx, streams.Delivery{
			RunID:      run.RunID,
			ChatKey:    run.ChatKey,
			SourceName: run.SourceName,
			Text:       text,
		})
		if err != nil {
			logger.Error("Failed to publish delivery to stream",
				"run_id", run.RunID,
				"error", err.Error(),
			)
		} else {
			logger.Info("Delivery published to stream",
				"run_id", run.RunID,
				"stream_msg_id", msgID,
			)
		}
	}

	if deps.ChatClient == nil {
		return
	}

	confirmation, err := deps.ChatClient.DeliverBriefing(ctx, run.ChatKey, text)
	if err != nil {
		deps.DB.Model(run).Update("error_message", err.Error())
		logger.Error("Chat delivery failed",
			"run_id", run.RunID,
			"chat_key", run.ChatKey,
			"error", err.Error(),
		)
		return
	}

	now := time.Now()
	deps.DB.Model(run).Update("delivered_at", now)
	logger.Info("Briefing delivered",
		"run_id", run.RunID,
		"chat_key", run.ChatKey,
		"confirmation", confirmation,
	)
}

// resolveFetchConfig builds the upstream config for a run. Subscription
// settings override service-level defaults; the subscription's encrypted
// token overrides the shared ALAPI_TOKEN.
func resolveFetchConfig(cfg *config.Config, deps Deps, chatKey, sourceName string) (zaobao.Config, zaobao.RenderOptions, error) {
	fetchCfg := zaobao.Config{
		Token:    cfg.AlapiToken,
		Endpoint: cfg.AlapiURL,
		Timeout:  time.Duration(cfg.AlapiTimeout) * time.Second,
	}
	renderOpts := zaobao.RenderOptions{
		Bullet:          cfg.NewsBullet,
		EmptyNewsPolicy: zaobao.EmptyNewsPolicy(cfg.EmptyNewsPolicy),
	}

	var sub models.ChatSubscription
	err := deps.DB.Where("chat_key = ? AND source_name = ?", chatKey, sourceName).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Ad-hoc run without a subscription: service defaults apply
		return fetchCfg, renderOpts, nil
	}
	if err != nil {
		return fetchCfg, renderOpts, fmt.Errorf("failed to load subscription: %w", err)
	}

	if sub.TokenCiphertext != "" {
		if deps.Encryptor == nil {
			return fetchCfg, renderOpts, fmt.Errorf("subscription has encrypted token but no encryption key is configured")
		}
		token, err := deps.Encryptor.Decrypt(sub.TokenCiphertext)
		if err != nil {
			return fetchCfg, renderOpts, fmt.Errorf("failed to decrypt subscription token: %w", err)
		}
		fetchCfg.Token = token
	}

	if len(sub.Settings) > 0 {
		var settings map[string]interface{}
		if err := json.Unmarshal(sub.Settings, &settings); err != nil {
			return fetchCfg, renderOpts, fmt.Errorf("failed to parse subscription settings: %w", err)
		}
		if bullet, ok := settings["bullet"].(string); ok {
			renderOpts.Bullet = bullet
		}
		if policy, ok := settings["empty_news_policy"].(string); ok {
			renderOpts.EmptyNewsPolicy = zaobao.EmptyNewsPolicy(policy)
		}
	}

	return fetchCfg, renderOpts, nil
}

// handleScheduledBriefing fans the daily tick out into one fetch run per
// enabled subscription.
func handleScheduledBriefing(logger *slog.Logger, db *gorm.DB) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var subscriptions []models.ChatSubscription
		if err := db.WithContext(ctx).Where("enabled = ?", true).Find(&subscriptions).Error; err != nil {
			return fmt.Errorf("failed to list subscriptions: %w", err)
		}

		logger.Info("Processing briefing:scheduled task", "subscriptions", len(subscriptions))

		var enqueued int
		for _, sub := range subscriptions {
			// Skip chats that already have a run in flight
			var existing models.BriefingRun
			err := db.WithContext(ctx).
				Where("chat_key = ? AND source_name = ? AND status IN ?",
					sub.ChatKey, sub.SourceName,
					[]string{models.BriefingRunStatusPending, models.BriefingRunStatusProcessing}).
				First(&existing).Error
			if err == nil {
				logger.Info("Run already in flight, skipping", "chat_key", sub.ChatKey)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Error("Failed to check in-flight runs", "chat_key", sub.ChatKey, "error", err.Error())
				continue
			}

			run := models.BriefingRun{
				RunID:      uuid.New().String(),
				ChatKey:    sub.ChatKey,
				SourceName: sub.SourceName,
				Status:     models.BriefingRunStatusPending,
			}
			if err := db.WithContext(ctx).Create(&run).Error; err != nil {
				logger.Error("Failed to create briefing run", "chat_key", sub.ChatKey, "error", err.Error())
				continue
			}

			if err := EnqueueFetchBriefing(run.RunID); err != nil {
				db.Model(&run).Updates(map[string]interface{}{
					"status":        models.BriefingRunStatusFailed,
					"error_message": "Failed to enqueue fetch task",
				})
				logger.Error("Failed to enqueue fetch task", "run_id", run.RunID, "error", err.Error())
				continue
			}
			enqueued++
		}

		logger.Info("Scheduled briefing fan-out complete", "enqueued", enqueued)
		return nil
	}
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		// Check if this is the final failure (task will move to dead letter queue)
		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
				"payload", string(task.Payload()),
			)
		}
	}
}

package worker

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/XG2020/zaobao/internal/config"
	"github.com/hibiken/asynq"
)

// StartScheduler creates and starts an Asynq Scheduler for the daily
// briefing tick. Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	location, err := time.LoadLocation(cfg.BriefingTimezone)
	if err != nil {
		slog.Warn("Invalid timezone, using UTC", "timezone", cfg.BriefingTimezone, "error", err)
		location = time.UTC
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: location,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	// Register the daily briefing fan-out task
	task := asynq.NewTask(
		TaskScheduledBriefing,
		nil, // empty payload - handler queries all subscriptions
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute), // covers fan-out across all chats
		asynq.Retention(24*time.Hour),
		asynq.Unique(24*time.Hour), // prevent duplicate if scheduler runs twice
	)

	entryID, err := scheduler.Register(cfg.BriefingSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register briefing schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	slog.Info(
		"Scheduler started",
		"schedule", cfg.BriefingSchedule,
		"timezone", cfg.BriefingTimezone,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}

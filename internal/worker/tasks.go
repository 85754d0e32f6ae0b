package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TaskFetchBriefing     = "briefing:fetch"
	TaskScheduledBriefing = "briefing:scheduled"
)

// Package-level Asynq client (singleton)
var client *asynq.Client

// InitClient initializes the global Asynq client for task enqueueing.
// Must be called before any EnqueueX functions.
func InitClient(redisURL string) error {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return err
	}

	client = asynq.NewClient(opt)
	return nil
}

// CloseClient closes the Asynq client connection gracefully.
func CloseClient() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// EnqueueFetchBriefing enqueues a fetch-and-deliver task for the given run ID.
// Retries cover infrastructure errors only; the handler marks upstream and
// validation failures terminal itself.
func EnqueueFetchBriefing(runID string) error {
	payload, err := json.Marshal(map[string]string{
		"run_id": runID,
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(
		TaskFetchBriefing,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	_, err = client.Enqueue(task)
	return err
}

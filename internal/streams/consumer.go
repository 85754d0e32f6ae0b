package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AckConsumer consumes delivery acknowledgements from Redis Streams
type AckConsumer struct {
	rdb          *redis.Client
	groupName    string
	consumerName string
}

// NewAckConsumer creates a new AckConsumer instance
func NewAckConsumer(redisURL, consumerName string) (*AckConsumer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	// Read timeout must exceed the XReadGroup Block duration (5s)
	// to avoid spurious i/o timeout errors on idle streams.
	opts.ReadTimeout = 10 * time.Second

	client := redis.NewClient(opts)

	// Create consumer group on briefing:acks stream
	// Start ID "0" means read from beginning if group is new
	err = client.XGroupCreateMkStream(context.Background(), StreamAcks, GroupGoWorkers, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	// Ignore BUSYGROUP error - group already exists

	return &AckConsumer{
		rdb:          client,
		groupName:    GroupGoWorkers,
		consumerName: consumerName,
	}, nil
}

// ConsumeAcks runs a blocking loop consuming acknowledgements from the stream
func (c *AckConsumer) ConsumeAcks(ctx context.Context, handler func(DeliveryAck) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerName,
			Streams:  []string{StreamAcks, ">"},
			Count:    10,
			Block:    5000, // 5 seconds
		}).Result()

		if err == redis.Nil {
			// No messages available, continue loop
			continue
		}

		if err != nil {
			// Blocking reads return a timeout when no messages arrive
			// within the Block duration — this is normal, not an error.
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			slog.Error("Failed to read from stream", "error", err)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				payloadStr, ok := message.Values["payload"].(string)
				if !ok {
					slog.Error("Invalid message payload", "message_id", message.ID)
					continue
				}

				var ack DeliveryAck
				if err := json.Unmarshal([]byte(payloadStr), &ack); err != nil {
					slog.Error("Failed to unmarshal ack", "error", err, "message_id", message.ID)
					continue
				}

				if err := handler(ack); err != nil {
					slog.Error("Handler failed", "error", err, "run_id", ack.RunID)
					// Message stays in PEL for retry, don't ACK
					continue
				}

				if err := c.rdb.XAck(ctx, StreamAcks, c.groupName, message.ID).Err(); err != nil {
					slog.Error("Failed to ACK message", "error", err, "message_id", message.ID)
				}
			}
		}
	}
}

// Close closes the Redis client connection
func (c *AckConsumer) Close() error {
	return c.rdb.Close()
}

// StartAckConsumer is a convenience function that starts the ack consumer
// in a background goroutine and returns a stop function
func StartAckConsumer(redisURL string, db *gorm.DB) (stop func(), err error) {
	consumer, err := NewAckConsumer(redisURL, "go-worker-1")
	if err != nil {
		return nil, fmt.Errorf("failed to create ack consumer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := consumer.ConsumeAcks(ctx, HandleDeliveryAck(db)); err != nil {
			if err != context.Canceled {
				slog.Error("Ack consumer stopped with error", "error", err)
			}
		}
	}()

	slog.Info("Ack consumer started")

	return func() {
		cancel()
		consumer.Close()
	}, nil
}

package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/clueboard/internal/publisher"
)

const (
	// Batch size for reading messages
	batchSize = 100

	// Block duration when waiting for new messages
	blockDuration = 2 * time.Second
)

// Feed tails the transcript stream and hands each event to the hub. It
// reads without a consumer group, so every instance sees every event.
type Feed struct {
	redis  *redis.Client
	hub    *Hub
	stream string
	logger *slog.Logger
}

// NewFeed creates a feed over publisher.TranscriptStream.
func NewFeed(client *redis.Client, hub *Hub, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		redis:  client,
		hub:    hub,
		stream: publisher.TranscriptStream,
		logger: logger.With("component", "ws_feed", "stream", publisher.TranscriptStream),
	}
}

// Run blocks until ctx is cancelled. Only events added after Run starts
// are delivered.
func (f *Feed) Run(ctx context.Context) {
	f.logger.Info("stream feed started")
	lastID := "$"

	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := f.redis.XRead(ctx, &redis.XReadArgs{
			Streams: []string{f.stream, lastID},
			Count:   batchSize,
			Block:   blockDuration,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			f.logger.Warn("stream read error", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				lastID = msg.ID
				event, err := decodeEvent(msg)
				if err != nil {
					f.logger.Warn("skipping stream message", "id", msg.ID, "err", err)
					continue
				}
				f.hub.Broadcast(event)
			}
		}
	}
}

func decodeEvent(msg redis.XMessage) (publisher.TranscriptEvent, error) {
	var event publisher.TranscriptEvent

	data, ok := msg.Values["data"].(string)
	if !ok {
		return event, fmt.Errorf("message has no data field: %v", msg.Values)
	}
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return event, fmt.Errorf("decode transcript event: %w", err)
	}
	return event, nil
}

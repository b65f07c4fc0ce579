package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TranscriptStream carries one event per extracted game.
const TranscriptStream = "transcripts.extracted"

// TranscriptEvent announces a freshly written artifact.
type TranscriptEvent struct {
	SeasonID       string    `json:"season_id"`
	GameID         string    `json:"game_id"`
	URL            string    `json:"url"`
	Path           string    `json:"path"`
	Rounds         int       `json:"rounds"`
	Clues          int       `json:"clues"`
	TripleStumpers int       `json:"triple_stumpers"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: TranscriptStream,
		maxLen: 10000,
	}
}

// PublishTranscript appends an event to the transcript stream.
func (rsp *RedisStreamPublisher) PublishTranscript(ctx context.Context, event TranscriptEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transcript event: %w", err)
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rsp.stream,
		MaxLen: rsp.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", rsp.stream, err)
	}

	return nil
}

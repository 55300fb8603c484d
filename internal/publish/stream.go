package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"value-bet-finder/internal/analysis"
)

// ValueBet is the stream payload for one flagged row.
type ValueBet struct {
	PassID     string       `json:"pass_id"`
	DetectedAt time.Time    `json:"detected_at"`
	Label      string       `json:"label"`
	Row        analysis.Row `json:"row"`
}

// streamAdder is the part of *redis.Client the publisher uses.
type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher publishes flagged rows to a Redis stream
type StreamPublisher struct {
	client streamAdder
	stream string
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

// Connect opens a Redis client and checks it with a PING.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// streamValues builds the XADD field set for a row.
func streamValues(passID string, detectedAt time.Time, row analysis.Row) (map[string]interface{}, error) {
	payload, err := json.Marshal(ValueBet{
		PassID:     passID,
		DetectedAt: detectedAt.UTC(),
		Label:      row.Label(),
		Row:        row,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value bet: %w", err)
	}

	return map[string]interface{}{
		"pass_id":   passID,
		"tag":       row.Tag,
		"value_bet": string(payload),
	}, nil
}

// PublishRow publishes a single flagged row
func (p *StreamPublisher) PublishRow(ctx context.Context, passID string, detectedAt time.Time, row analysis.Row) error {
	values, err := streamValues(passID, detectedAt, row)
	if err != nil {
		return err
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}

	return nil
}

// PublishRows publishes every row of a pass, stopping at the first failure.
func (p *StreamPublisher) PublishRows(ctx context.Context, passID string, detectedAt time.Time, rows []analysis.Row) error {
	for _, row := range rows {
		if err := p.PublishRow(ctx, passID, detectedAt, row); err != nil {
			return err
		}
	}
	return nil
}

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"fleetwatch/internal/domain"
)

const (
	eventsChannel = "fleet:events"
	alertsChannel = "fleet:alerts"
)

// RedisTransport subscribes to the fleet event channel and forwards
// well-formed events into the ingestion gateway. Accepted alert-class
// events can be republished for external dashboards via PublishAlert.
type RedisTransport struct {
	client *redis.Client
	ingest Ingestor
}

func NewRedisTransport(client *redis.Client, ingest Ingestor) *RedisTransport {
	return &RedisTransport{client: client, ingest: ingest}
}

// Run consumes the event channel until the context is cancelled.
func (t *RedisTransport) Run(ctx context.Context) {
	pubsub := t.client.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	slog.Info("redis transport subscribed", "channel", eventsChannel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Debug("dropping unparseable redis event", "error", err)
				continue
			}
			if ev.ID == "" || ev.TripID == "" {
				continue
			}
			t.ingest.IngestEvent(ev)
		}
	}
}

// PublishAlert fans an accepted alert out to the alerts channel.
func (t *RedisTransport) PublishAlert(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	if err := t.client.Publish(ctx, alertsChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish alert: %w", err)
	}
	return nil
}

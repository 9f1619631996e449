package service

import (
	"context"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/metrics"
)

// publish never fails the caller: delivery problems are logged and counted.
func publish(ctx context.Context, p events.Publisher, m *metrics.Metrics, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", event["type"], "error", err)
		m.EventPublishFailed(topic)
	}
}

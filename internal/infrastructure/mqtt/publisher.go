package mqtt

import (
	"context"
	"encoding/json"

	"github.com/taskforge/taskforge-core/internal/infrastructure/logging"
	"github.com/taskforge/taskforge-core/internal/task"
)

// EventPublisher adapts the MQTT client to the task.Publisher
// interface. Publish failures are logged and dropped: the broker is an
// optional integration point and must never fail a request.
type EventPublisher struct {
	client *Client
	qos    byte
	log    *logging.Logger
}

// NewEventPublisher creates a publisher bridging task events onto the
// taskforge/events topics.
func NewEventPublisher(client *Client, qos byte, log *logging.Logger) *EventPublisher {
	return &EventPublisher{client: client, qos: qos, log: log}
}

// Publish serialises the event and sends it to the task events topic.
func (p *EventPublisher) Publish(_ context.Context, event task.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshalling task event", "type", event.Type, "error", err)
		return
	}

	if err := p.client.Publish(TopicTaskEvents, payload, p.qos, false); err != nil {
		p.log.Warn("publishing task event", "type", event.Type, "error", err)
	}
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"hr-attendance/internal/model"
)

// EventPublisher sends attendance events to the default exchange, routed to
// the attendance queue, and waits for the broker to confirm each one.
type EventPublisher struct {
	conn  *amqp.Connection
	queue string
}

func NewEventPublisher(conn *amqp.Connection, queue string) *EventPublisher {
	return &EventPublisher{conn: conn, queue: queue}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.AttendanceEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable publisher confirms failed: %w", err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queue, false, false, msg)
	if err != nil {
		return fmt.Errorf("publish attendance event failed: %w", err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for attendance event confirm failed: %w", err)
	}
	if !acked {
		return fmt.Errorf("attendance event %s nacked by broker", msg.MessageId)
	}
	return nil
}

// newPublishing builds a persistent JSON message. MessageId is stable per
// (type, record) so consumers can spot redeliveries in logs.
func newPublishing(event model.AttendanceEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal attendance event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s:%d", event.Type, event.AttendanceID),
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}

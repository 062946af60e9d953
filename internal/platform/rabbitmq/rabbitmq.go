package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const connectionName = "hr-attendance"

// New dials the broker and declares queue on a throwaway channel; a declared
// queue is the readiness check. An empty url disables messaging: nil, nil.
func New(ctx context.Context, url, queue string) (*amqp.Connection, error) {
	if url == "" {
		return nil, nil
	}

	props := amqp.NewConnectionProperties()
	props.SetClientConnectionName(connectionName)
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat:  10 * time.Second,
		Locale:     "en_US",
		Properties: props,
		Dial:       amqp.DefaultDial(3 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ready := make(chan error, 1)
	go func() { ready <- declareOnce(conn, queue) }()

	select {
	case <-readyCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq not ready: %w", readyCtx.Err())
	case err := <-ready:
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

func declareOnce(conn *amqp.Connection, queue string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()
	return DeclareQueue(ch, queue)
}

// DeclareQueue declares the durable, non-exclusive queue shared by the
// publisher and the daily-total worker. Both sides must agree on these flags.
func DeclareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}

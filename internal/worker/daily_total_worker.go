package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"hr-attendance/internal/logging"
	"hr-attendance/internal/model"
	"hr-attendance/internal/platform/rabbitmq"
)

// ErrUndecodable marks deliveries that can never be processed.
var ErrUndecodable = errors.New("undecodable attendance event")

type DailyTotalRecomputer interface {
	Recompute(ctx context.Context, userID uint, checkIn time.Time) (*model.DailyTotal, error)
}

// DailyTotalWorker consumes attendance events and refreshes the daily total of
// every closed session.
type DailyTotalWorker struct {
	conn      *amqp.Connection
	totals    DailyTotalRecomputer
	queueName string
	logger    logging.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDailyTotalWorker(conn *amqp.Connection, totals DailyTotalRecomputer, queueName string, logger logging.Logger) *DailyTotalWorker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DailyTotalWorker{
		conn:      conn,
		totals:    totals,
		queueName: queueName,
		logger:    logger.With("component", "daily_total_worker", "queue", queueName),
	}
}

func (w *DailyTotalWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *DailyTotalWorker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.Process(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrUndecodable):
		w.logger.Warn(ctx, "drop attendance event", "error", err)
		_ = d.Nack(false, false)
	default:
		// One retry through the broker; a second failure drops the message.
		w.logger.Error(ctx, "process attendance event failed", "redelivered", d.Redelivered, "error", err)
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Process applies one event body. Events other than check-out are
// acknowledged without work.
func (w *DailyTotalWorker) Process(ctx context.Context, body []byte) error {
	var event model.AttendanceEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if event.UserID == 0 || event.CheckIn.IsZero() {
		return fmt.Errorf("%w: missing user or check-in", ErrUndecodable)
	}
	if event.Type != model.EventCheckOut {
		return nil
	}

	total, err := w.totals.Recompute(ctx, event.UserID, event.CheckIn)
	if err != nil {
		return err
	}
	w.logger.Info(ctx, "daily total updated",
		"user_id", total.UserID, "work_date", total.WorkDate, "total_hours", total.TotalHours)
	return nil
}

func (w *DailyTotalWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

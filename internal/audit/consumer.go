// internal/audit/consumer.go
package audit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"moveops/internal/metrics"
	"moveops/internal/model"
)

// Store is the slice of storage the consumer writes through.
type Store interface {
	InsertAuditEvent(ctx context.Context, ev *model.AuditEvent) error
}

// Consumer drains the audit queue into storage. Events that cannot be
// decoded or written are rejected to the DLQ; nothing is retried in-process.
type Consumer struct {
	channel     *amqp.Channel
	store       Store
	consumerTag string
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// StartConsumer opens its own channel on the shared connection and begins
// consuming until Stop is called. workers sets how many goroutines drain the
// queue in parallel; values below 1 collapse to a single worker.
func StartConsumer(conn *amqp.Connection, store Store, workers int) (*Consumer, error) {
	if workers < 1 {
		workers = 1
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "set qos")
	}

	const consumerTag = "audit-consumer"
	msgs, err := ch.Consume(
		QueueName,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, errors.Wrap(err, "start consuming")
	}

	c := &Consumer{
		channel:     ch,
		store:       store,
		consumerTag: consumerTag,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			c.consumeLoop(msgs)
		}()
	}
	go func() {
		wg.Wait()
		close(c.doneCh)
	}()

	logrus.WithField("workers", workers).Info("audit consumer started")
	return c, nil
}

func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	metrics.AuditConsumerActive.Inc()
	defer metrics.AuditConsumerActive.Dec()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			c.handle(msg)

		case <-c.stopCh:
			return
		}
	}
}

func (c *Consumer) handle(msg amqp.Delivery) {
	var ev model.AuditEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		logrus.WithError(err).Error("audit event decode failed")
		_ = msg.Reject(false) // to DLQ
		return
	}

	if err := c.store.InsertAuditEvent(context.Background(), &ev); err != nil {
		logrus.WithError(err).WithField("action", ev.Action).Error("audit insert failed")
		_ = msg.Nack(false, false)
		return
	}

	metrics.AuditEventsWritten.Inc()
	_ = msg.Ack(false)
}

// Stop signals the workers and waits for all of them to finish.
func (c *Consumer) Stop() {
	close(c.stopCh)
	_ = c.channel.Cancel(c.consumerTag, false)
	<-c.doneCh
	_ = c.channel.Close()
	logrus.Info("audit consumer stopped")
}

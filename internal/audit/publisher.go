// internal/audit/publisher.go
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"moveops/internal/model"
)

const (
	QueueName = "audit_events"
	dlqName   = "audit_events_dlq"
)

// Publisher emits audit events to the durable audit queue. Publishing is
// best effort from the caller's point of view: a failed publish is logged
// and must never fail the originating request.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to RabbitMQ")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "create channel")
	}

	p := &Publisher{conn: conn, channel: ch}
	if err := p.declareQueues(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Connection() *amqp.Connection {
	return p.conn
}

func (p *Publisher) declareQueues() error {
	_, err := p.channel.QueueDeclare(dlqName, true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "declare DLQ")
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	_, err = p.channel.QueueDeclare(QueueName, true, false, false, false, args)
	return errors.Wrap(err, "declare audit queue")
}

// Publish enqueues one event. Missing id/timestamp are filled in.
func (p *Publisher) Publish(ev model.AuditEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal audit event")
	}
	err = p.channel.Publish(
		"",        // default exchange
		QueueName, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   ev.CreatedAt,
		},
	)
	return errors.Wrap(err, "publish audit event")
}

// TryPublish logs a failed publish instead of returning it; audit delivery
// is asynchronous to the request that caused it.
func (p *Publisher) TryPublish(ev model.AuditEvent) {
	if err := p.Publish(ev); err != nil {
		logrus.WithError(err).WithField("action", ev.Action).Error("audit publish failed")
	}
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

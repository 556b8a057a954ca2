package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher queues events and sends them from one worker over a lazily
// (re)opened channel. Messages are persistent and routed by queue name on the
// default exchange.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	events chan Event
	wg     sync.WaitGroup
	once   sync.Once

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	p := &AMQPPublisher{
		url:    url,
		queue:  queue,
		log:    log,
		events: make(chan Event, 256),
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

func (p *AMQPPublisher) Publish(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.log.Warn("event queue full, dropping event", zap.String("type", ev.Type))
	}
}

func (p *AMQPPublisher) Close() {
	p.once.Do(func() {
		close(p.events)
		p.wg.Wait()
		p.reset()
	})
}

func (p *AMQPPublisher) worker() {
	defer p.wg.Done()
	for ev := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.send(ctx, ev); err != nil {
			p.log.Warn("event publish failed",
				zap.String("type", ev.Type),
				zap.Error(err),
			)
			p.reset()
		}
		cancel()
	}
}

func (p *AMQPPublisher) send(ctx context.Context, ev Event) error {
	if err := p.ensureChannel(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.OccurredAt,
			Type:         ev.Type,
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}
	if _, err := ch.QueueDeclare(
		p.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

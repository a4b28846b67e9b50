// Package amqp publishes session outcomes to a RabbitMQ topic exchange.
package amqp

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
)

const queueSize = 256

// Message is the JSON body published for one event.
type Message struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    app.Event `json:"payload"`
}

// Encode maps an event to its routing key and body. Only answer outcomes and
// completed sessions leave the process.
func Encode(ev app.Event, at time.Time) (string, []byte, bool) {
	switch ev.Type {
	case app.EventEvaluated, app.EventFinished:
	default:
		return "", nil, false
	}
	routingKey := "quiz." + string(ev.Type)
	body, err := json.Marshal(Message{Type: routingKey, OccurredAt: at.UTC(), Payload: ev})
	if err != nil {
		return "", nil, false
	}
	return routingKey, body, true
}

// Publisher is an app.Notifier. Notify never blocks: events are queued and a
// background goroutine publishes them; a full queue drops the event.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger

	queue     chan app.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPublisher dials the broker and declares a durable topic exchange.
func NewPublisher(amqpURL, exchange string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p := &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
		queue:    make(chan app.Event, queueSize),
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p, nil
}

func (p *Publisher) Notify(ev app.Event) {
	if _, _, ok := Encode(ev, time.Time{}); !ok {
		return
	}
	select {
	case <-p.done:
	case p.queue <- ev:
	default:
		p.logger.Warn("event queue full, dropping", zap.String("type", string(ev.Type)), zap.String("session", ev.SessionID))
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case ev := <-p.queue:
			p.publish(ev)
		}
	}
}

func (p *Publisher) publish(ev app.Event) {
	routingKey, body, ok := Encode(ev, time.Now())
	if !ok {
		return
	}
	err := p.channel.Publish(
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Warn("publish failed", zap.String("routingKey", routingKey), zap.Error(err))
	}
}

// Close stops the worker and closes the channel and connection.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		if p.channel != nil {
			_ = p.channel.Close()
		}
		if p.conn != nil {
			_ = p.conn.Close()
		}
	})
}

package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const rulesInvalidatedKey = "rules.invalidated"

// RulesInvalidatedEvent is broadcast whenever an agent's rules document is
// edited, so horizontally scaled instances drop their local cache entry.
type RulesInvalidatedEvent struct {
	EventID string    `json:"event_id"`
	AgentID string    `json:"agent_id"`
	At      time.Time `json:"at"`
}

// RulesEventBus fans rules-invalidation events out over a RabbitMQ topic
// exchange. Optional: single-instance deployments run without it and rely on
// the in-process invalidation hook alone.
type RulesEventBus struct {
	conn     *amqp091.Connection
	exchange string
}

func NewRulesEventBus(url, exchange string) (*RulesEventBus, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RulesEventBus{conn: conn, exchange: exchange}, nil
}

// PublishInvalidation broadcasts that agentID's rules changed.
func (b *RulesEventBus) PublishInvalidation(ctx context.Context, agentID string) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	evt := RulesInvalidatedEvent{
		EventID: uuid.NewString(),
		AgentID: agentID,
		At:      time.Now().UTC(),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, b.exchange, rulesInvalidatedKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    evt.EventID,
		Timestamp:    evt.At,
		Body:         body,
	})
}

// Subscribe binds an exclusive per-instance queue to the exchange and calls
// handler with the agent id of every invalidation event. Invalidation is
// idempotent, so an instance consuming its own events is harmless.
func (b *RulesEventBus) Subscribe(handler func(agentID string)) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, rulesInvalidatedKey, b.exchange, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("bind queue: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		defer ch.Close()
		for msg := range msgs {
			var evt RulesInvalidatedEvent
			if err := json.Unmarshal(msg.Body, &evt); err != nil {
				log.Warn().Err(err).Msg("rules event: bad payload")
				continue
			}
			if evt.AgentID == "" {
				continue
			}
			handler(evt.AgentID)
		}
	}()
	return nil
}

func (b *RulesEventBus) Close() error {
	return b.conn.Close()
}

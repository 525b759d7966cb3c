package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/trustportal/trust-api/internal/models"
)

// EventEntryAppended is the type of every mirrored message
const EventEntryAppended = "audit.entry.appended"

// EntryPublisher mirrors committed audit entries to downstream consumers.
// The ledger stays authoritative; consumers re-verify with the hashes.
type EntryPublisher interface {
	Publish(ctx context.Context, entry *models.AuditEntry) error
}

// channel is the part of *amqp.Channel the publisher needs
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type entryMessage struct {
	Event string             `json:"event"`
	Entry *models.AuditEntry `json:"entry"`
}

type amqpPublisher struct {
	ch         channel
	exchange   string
	routingKey string
}

// NewEntryPublisher publishes to exchange with routingKey on ch
func NewEntryPublisher(ch *amqp.Channel, exchange, routingKey string) EntryPublisher {
	return newEntryPublisher(ch, exchange, routingKey)
}

func newEntryPublisher(ch channel, exchange, routingKey string) *amqpPublisher {
	return &amqpPublisher{ch: ch, exchange: exchange, routingKey: routingKey}
}

func (p *amqpPublisher) Publish(ctx context.Context, entry *models.AuditEntry) error {
	body, err := json.Marshal(entryMessage{Event: EventEntryAppended, Entry: entry})
	if err != nil {
		return fmt.Errorf("encode audit entry %s: %w", entry.ID, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    entry.ID,
		Timestamp:    entry.CreatedAt,
		Type:         EventEntryAppended,
		Headers: amqp.Table{
			"entity_type": entry.EntityType,
			"action":      entry.Action,
			"seq":         entry.Seq,
		},
		Body: body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish audit entry %s: %w", entry.ID, err)
	}
	return nil
}

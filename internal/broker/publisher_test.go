package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/trustportal/trust-api/internal/models"
)

type mockChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (m *mockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	m.exchange, m.key, m.msg = exchange, key, msg
	return m.err
}

func TestPublish_EncodesEntry(t *testing.T) {
	ch := &mockChannel{}
	p := newEntryPublisher(ch, "audit.events", "audit.entry.appended")

	prev := "abc"
	entry := &models.AuditEntry{
		Seq:         7,
		ID:          "2b1c6a2e-0000-4000-8000-000000000007",
		EntityType:  models.EntityTypeLoanApplication,
		EntityID:    "APP-1",
		Action:      models.ActionLoanScored,
		PerformedBy: models.DefaultActor,
		Details:     datatypes.JSON(`{"score":0.8}`),
		Hash:        "def",
		PrevHash:    &prev,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(context.Background(), entry))

	assert.Equal(t, "audit.events", ch.exchange)
	assert.Equal(t, "audit.entry.appended", ch.key)
	assert.Equal(t, entry.ID, ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, models.ActionLoanScored, ch.msg.Headers["action"])

	var decoded struct {
		Event string            `json:"event"`
		Entry models.AuditEntry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, EventEntryAppended, decoded.Event)
	assert.Equal(t, "def", decoded.Entry.Hash)
	assert.Equal(t, "abc", *decoded.Entry.PrevHash)
	assert.JSONEq(t, `{"score":0.8}`, string(decoded.Entry.Details))
}

func TestPublish_WrapsBrokerError(t *testing.T) {
	boom := errors.New("channel closed")
	p := newEntryPublisher(&mockChannel{err: boom}, "x", "y")

	err := p.Publish(context.Background(), &models.AuditEntry{ID: "id-1", Details: datatypes.JSON(`{}`)})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "id-1")
}

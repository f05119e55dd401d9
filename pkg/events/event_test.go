package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()

	before := time.Now().UTC()
	event := NewBaseEvent("creditrisk.assessment.completed", aggregateID, "Assessment")
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "creditrisk.assessment.completed", event.EventType())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Assessment", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestNewBaseEvent_UniqueIDs(t *testing.T) {
	id := uuid.New()
	a := NewBaseEvent("x", id, "Assessment")
	b := NewBaseEvent("x", id, "Assessment")
	assert.NotEqual(t, a.EventID(), b.EventID())
}

func TestBaseEvent_JSONEnvelope(t *testing.T) {
	type decided struct {
		BaseEvent
		Prediction int `json:"prediction"`
	}

	evt := decided{BaseEvent: NewBaseEvent("decided", uuid.New(), "Assessment"), Prediction: 1}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "decided", parsed["event_type"])
	assert.Equal(t, "Assessment", parsed["aggregate_type"])
	assert.Equal(t, evt.EventID().String(), parsed["event_id"])
	assert.EqualValues(t, 1, parsed["prediction"])
}

func TestEventCollector(t *testing.T) {
	var c EventCollector
	assert.Empty(t, c.Pending())

	e1 := NewBaseEvent("a", uuid.New(), "Assessment")
	e2 := NewBaseEvent("b", uuid.New(), "Assessment")
	c.Record(e1)
	c.Record(e2)

	pending := c.Pending()
	require.Len(t, pending, 2)
	pending[0] = nil
	assert.NotNil(t, c.Pending()[0], "Pending must return a copy")

	drained := c.Drain()
	assert.Equal(t, []DomainEvent{e1, e2}, drained)
	assert.Empty(t, c.Pending())
}

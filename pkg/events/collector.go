package events

// EventCollector is embedded in aggregates to buffer the domain events raised
// while the aggregate changes state, until the application layer drains them.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers a domain event.
func (c *EventCollector) Record(event DomainEvent) {
	c.pending = append(c.pending, event)
}

// Pending returns a copy of the buffered events.
func (c *EventCollector) Pending() []DomainEvent {
	out := make([]DomainEvent, len(c.pending))
	copy(out, c.pending)
	return out
}

// Drain returns the buffered events and empties the buffer.
func (c *EventCollector) Drain() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}

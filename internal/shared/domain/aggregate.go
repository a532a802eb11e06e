package domain

// Recorder buffers the events an aggregate raises until the command handler
// writes them to the outbox. Embed it by value.
type Recorder struct {
	pending []DomainEvent
}

func (r *Recorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// DomainEvents returns the buffered events in the order they were recorded.
func (r *Recorder) DomainEvents() []DomainEvent {
	return r.pending
}

// ClearDomainEvents drops the buffer once the events are persisted.
func (r *Recorder) ClearDomainEvents() {
	r.pending = nil
}

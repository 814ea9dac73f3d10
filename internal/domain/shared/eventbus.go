package shared

import "context"

// EventHandler reacts to published events. EventTypes lists the types it
// wants; an empty list subscribes it to everything.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what application services depend on.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers. Subscribe with
// no explicit types falls back to the handler's own EventTypes.
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PublishAndClear hands the aggregate's pending events to publisher and
// empties the aggregate. A nil publisher discards them.
func PublishAndClear(ctx context.Context, publisher EventPublisher, aggregate AggregateRoot) error {
	pending := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	if publisher == nil || len(pending) == 0 {
		return nil
	}
	return publisher.Publish(ctx, pending...)
}

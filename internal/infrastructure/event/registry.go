package event

import (
	"slices"
	"sync"

	"github.com/shop/backend/internal/domain/shared"
)

// subscriptions routes event types to handlers. A handler registered with
// no event types receives every event after the typed handlers.
// Reads take a snapshot, so a handler may subscribe others while dispatching.
type subscriptions struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{byType: make(map[string][]shared.EventHandler)}
}

func (s *subscriptions) add(handler shared.EventHandler, eventTypes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(eventTypes) == 0 {
		s.catchAll = appendOnce(s.catchAll, handler)
		return
	}
	for _, eventType := range eventTypes {
		s.byType[eventType] = appendOnce(s.byType[eventType], handler)
	}
}

func (s *subscriptions) remove(handler shared.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catchAll = without(s.catchAll, handler)
	for eventType, handlers := range s.byType {
		if rest := without(handlers, handler); len(rest) > 0 {
			s.byType[eventType] = rest
		} else {
			delete(s.byType, eventType)
		}
	}
}

func (s *subscriptions) forEvent(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	typed := s.byType[eventType]
	out := make([]shared.EventHandler, 0, len(typed)+len(s.catchAll))
	out = append(out, typed...)
	return append(out, s.catchAll...)
}

// count returns the number of distinct subscribed handlers
func (s *subscriptions) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{})
	for _, h := range s.catchAll {
		seen[h] = struct{}{}
	}
	for _, handlers := range s.byType {
		for _, h := range handlers {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

// appendOnce never mutates the input slice, keeping earlier snapshots valid.
func appendOnce(handlers []shared.EventHandler, handler shared.EventHandler) []shared.EventHandler {
	if slices.Contains(handlers, handler) {
		return handlers
	}
	return append(slices.Clip(handlers), handler)
}

func without(handlers []shared.EventHandler, handler shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(slices.Clone(handlers), func(h shared.EventHandler) bool {
		return h == handler
	})
}

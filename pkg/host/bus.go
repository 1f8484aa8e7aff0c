// Package host models the page-render notifications a Knack application
// raises per view, so rendering callbacks can be bound to a named view.
package host

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// EventPrefix prefixes every view render event name.
const EventPrefix = "knack-page-render."

// EventName returns the render event raised for viewID.
func EventName(viewID string) string {
	return EventPrefix + strings.TrimSpace(viewID)
}

// Handler reacts to a page render by mutating the page.
type Handler func(ctx context.Context, page *html.Node) error

// Bus dispatches render events to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers handler for event.
func (b *Bus) Subscribe(event string, handler Handler) error {
	if strings.TrimSpace(event) == "" {
		return errors.New("host: event name is required")
	}
	if handler == nil {
		return errors.New("host: handler is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[event] = append(b.handlers[event], handler)
	return nil
}

// Publish runs the handlers of event in subscription order against page.
// Every handler runs; their errors are joined. It returns the number of
// handlers invoked.
func (b *Bus) Publish(ctx context.Context, event string, page *html.Node) (int, error) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event]...)
	b.mu.RUnlock()

	var errs []error
	for idx, handler := range handlers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := handler(ctx, page); err != nil {
			errs = append(errs, fmt.Errorf("host: %s handler %d: %w", event, idx, err))
		}
	}
	return len(handlers), errors.Join(errs...)
}

// Events lists events with at least one handler, sorted.
func (b *Bus) Events() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.handlers))
	for event, handlers := range b.handlers {
		if len(handlers) > 0 {
			out = append(out, event)
		}
	}
	slices.Sort(out)
	return out
}

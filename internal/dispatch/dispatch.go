package dispatch

import (
	"context"
	"fmt"

	"github.com/aslamtv/storebot-backend/pkg/enums"
	pkgerrors "github.com/aslamtv/storebot-backend/pkg/errors"
	"github.com/aslamtv/storebot-backend/pkg/logger"
)

// Event is one buyer action routed to a handler. Args carry the raw
// operation parameters (item ids, order ids, scopes) as strings.
type Event struct {
	Kind   enums.EventKind
	UserID int64
	Args   map[string]string
}

// Handler executes one event kind.
type Handler func(ctx context.Context, event Event) error

// Dispatcher maps event kinds to handlers. It replaces transport-level
// conditional chains so each handler can be tested in isolation.
type Dispatcher struct {
	handlers map[enums.EventKind]Handler
	logg     *logger.Logger
}

// New builds an empty dispatcher.
func New(logg *logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[enums.EventKind]Handler),
		logg:     logg,
	}
}

// Register binds a handler to an event kind. Re-registering a kind is a
// programming error.
func (d *Dispatcher) Register(kind enums.EventKind, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler for %q is nil", kind)
	}
	if _, exists := d.handlers[kind]; exists {
		return fmt.Errorf("handler for %q already registered", kind)
	}
	d.handlers[kind] = handler
	return nil
}

// Dispatch routes an event to its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	handler, ok := d.handlers[event.Kind]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no handler for event kind %q", event.Kind))
	}

	if d.logg != nil {
		ctx = d.logg.WithEventKind(d.logg.WithUserID(ctx, event.UserID), string(event.Kind))
	}
	return handler(ctx, event)
}

// Kinds lists the registered event kinds.
func (d *Dispatcher) Kinds() []enums.EventKind {
	kinds := make([]enums.EventKind, 0, len(d.handlers))
	for kind := range d.handlers {
		kinds = append(kinds, kind)
	}
	return kinds
}

package eventproc

import (
	"context"
	"sync"
)

// Store resolves the handler for an event name and version.
//
// Absence is a normal outcome: Resolve returns false and the processor
// answers with an eventNotFound response.
type Store interface {
	Resolve(name string, version uint16) (Handler, bool)
}

type routeKey struct {
	name    string
	version uint16
}

// Table is the default Store. It maps each (name, version) pair to exactly
// one handler and matches keys exactly: there is no wildcard, prefix or
// fallback across versions.
//
// Table is safe for concurrent use. The usual pattern is still to register
// every handler at startup and only resolve afterwards.
type Table struct {
	mu       sync.RWMutex
	handlers map[routeKey]Handler
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{handlers: make(map[routeKey]Handler)}
}

// Register adds the handler for name and version, replacing any handler
// already registered for the same pair.
//
// Example:
//
//	table.Register("order:create", 1, &CreateOrderHandler{db: db})
//	table.Register("order:create", 2, &CreateOrderV2Handler{db: db})
func (t *Table) Register(name string, version uint16, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[routeKey{name: name, version: version}] = h
}

// RegisterFunc is a convenience method for registering a handler function.
func (t *Table) RegisterFunc(name string, version uint16, fn func(ctx context.Context, req Event) (any, error)) {
	t.Register(name, version, HandlerFunc(fn))
}

// Resolve implements Store.
func (t *Table) Resolve(name string, version uint16) (Handler, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[routeKey{name: name, version: version}]
	return h, ok
}

// Len returns the number of registered (name, version) pairs.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

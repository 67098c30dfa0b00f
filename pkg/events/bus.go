// Package events fans engine state transitions out to in-process subscribers
// such as relayer adapters and statistics collectors.
package events

import (
	"sync"

	"github.com/dloop-protocol/bridge-engine/pkg/bridge"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope wraps an engine event with a unique delivery id so subscribers can
// deduplicate across reconnects.
type Envelope struct {
	ID    string       `json:"id"`
	Event bridge.Event `json:"event"`
}

// Bus is an in-process publish/subscribe fanout implementing bridge.Sink.
// Delivery is best effort: a subscriber that stops draining its channel loses
// events rather than stalling the engine.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]chan Envelope
	closed  bool
	bufSize int
	logger  *zap.Logger
}

// NewBus creates a bus whose subscriber channels buffer bufSize events.
func NewBus(bufSize int, logger *zap.Logger) *Bus {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Bus{
		subs:    make(map[string]chan Envelope),
		bufSize: bufSize,
		logger:  logger,
	}
}

// Publish delivers the event to every subscriber. Never blocks.
func (b *Bus) Publish(event bridge.Event) {
	env := Envelope{ID: uuid.NewString(), Event: event}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for name, ch := range b.subs {
		select {
		case ch <- env:
		default:
			b.logger.Warn("Dropping event for slow subscriber",
				zap.String("subscriber", name),
				zap.String("event_type", string(event.Type)),
				zap.String("transfer_id", event.TransferID))
		}
	}
}

// Subscribe registers a named subscriber and returns its channel together
// with a cancel function. Subscribing twice under the same name replaces the
// earlier subscription.
func (b *Bus) Subscribe(name string) (<-chan Envelope, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subs[name]; ok {
		close(old)
	}
	ch := make(chan Envelope, b.bufSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[name] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if cur, ok := b.subs[name]; ok && cur == ch {
			delete(b.subs, name)
			close(cur)
		}
	}
	return ch, cancel
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for name, ch := range b.subs {
		delete(b.subs, name)
		close(ch)
	}
}

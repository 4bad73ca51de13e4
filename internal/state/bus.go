package state

import (
	"context"
	"log"
	"sync"
)

// Handler processes a slot event. Implementations must be safe for
// concurrent calls from different goroutines.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Bus fans slot events out to subscribers. Events go through a buffered
// channel and are dispatched in a single consumer goroutine, so every
// subscriber sees them in publish order.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan Event
	quit        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewBus creates a Bus with the given channel buffer size.
func NewBus(bufSize int) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan Event, bufSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Subscribe registers a named handler. Names are unique; subscribing twice
// under one name replaces the earlier handler.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// dispatch iterates a snapshot of the slice, so never write through it.
	subs := make([]namedHandler, 0, len(b.subscribers)+1)
	replaced := false
	for _, s := range b.subscribers {
		if s.name == name {
			s.handler = h
			replaced = true
		}
		subs = append(subs, s)
	}
	if !replaced {
		subs = append(subs, namedHandler{name: name, handler: h})
	}
	b.subscribers = subs
}

// Unsubscribe removes the handler registered under name.
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := make([]namedHandler, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s.name != name {
			subs = append(subs, s)
		}
	}
	b.subscribers = subs
}

// Publish queues an event. Non-blocking: if the buffer is full the event is
// dropped and a warning is logged.
func (b *Bus) Publish(evt Event) {
	select {
	case b.events <- evt:
	default:
		log.Printf("state: buffer full, dropping %s event %s", evt.Type, evt.ID)
	}
}

// Start begins the consumer goroutine. It runs until ctx is cancelled or
// Stop is called, draining queued events before it exits.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt := <-b.events:
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				b.drain(ctx)
				return
			case <-b.quit:
				b.drain(ctx)
				return
			}
		}
	}()
}

// Stop signals the consumer goroutine and waits for it to finish. Start
// must have been called.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.quit) })
	<-b.done
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case evt := <-b.events:
			b.dispatch(ctx, evt)
		default:
			return
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			log.Printf("state: %s handler error for %s: %v", s.name, evt.Type, err)
		}
	}
}

// Package state holds the single currently open sheet and broadcasts its
// changes. There is one writer group (the pipeline) and many readers.
package state

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oddiville/sheets/internal/sheet"
)

var (
	// ErrNoSheet is returned when an operation needs an open sheet.
	ErrNoSheet = errors.New("no sheet is open")
	// ErrNoSuchAction is returned when a pressed key matches no button.
	ErrNoSuchAction = errors.New("open sheet has no button for action")
)

// EventType names a slot change on the wire.
type EventType string

const (
	EventSheet  EventType = "sheet"
	EventClosed EventType = "closed"
	EventAction EventType = "action"
)

// Event is one change of the slot.
type Event struct {
	ID      string          `json:"id"`
	Type    EventType       `json:"type"`
	Version uint64          `json:"version"`
	Config  *sheet.Config   `json:"config,omitempty"`
	Action  sheet.ActionKey `json:"actionKey,omitempty"`
	Kind    sheet.Kind      `json:"kind,omitempty"`
	At      time.Time       `json:"at"`
}

// Slot is the shared "current sheet". Writes replace the whole config;
// readers must treat a returned config as read-only.
//
// Every open attempt takes a generation from Begin. Only the latest
// generation may publish, and Clear invalidates all outstanding ones, so a
// slow fetch can neither overwrite a newer sheet nor reopen a dismissed one.
type Slot struct {
	mu      sync.Mutex
	gen     uint64
	version uint64
	current *sheet.Config
	bus     *Bus
	now     func() time.Time
}

// NewSlot returns an empty slot. bus may be nil.
func NewSlot(bus *Bus) *Slot {
	return &Slot{bus: bus, now: time.Now}
}

// Begin starts an open attempt and returns its generation.
func (s *Slot) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Publish replaces the current sheet if gen is still the latest generation.
// It reports whether the config was published.
func (s *Slot) Publish(gen uint64, cfg *sheet.Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.current = cfg
	s.version++
	s.emit(Event{Type: EventSheet, Config: cfg, Kind: cfg.Meta.Kind})
	return true
}

// Clear closes the current sheet and invalidates outstanding open attempts.
// It reports whether a sheet was open.
func (s *Slot) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.current == nil {
		return false
	}
	kind := s.current.Meta.Kind
	s.current = nil
	s.version++
	s.emit(Event{Type: EventClosed, Kind: kind})
	return true
}

// Current returns the open sheet, or nil, with the slot version.
func (s *Slot) Current() (*sheet.Config, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.version
}

// Press records a button press on the open sheet and broadcasts it.
func (s *Slot) Press(key sheet.ActionKey) (sheet.Button, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return sheet.Button{}, ErrNoSheet
	}
	b, ok := s.current.Button(key)
	if !ok {
		return sheet.Button{}, fmt.Errorf("%w: %q on %s", ErrNoSuchAction, key, s.current.Meta.Kind)
	}
	if b.Disabled {
		return sheet.Button{}, fmt.Errorf("%w: %q is disabled", ErrNoSuchAction, key)
	}
	log.Printf("state: action %s pressed on %s (%s)", key, s.current.Meta.Kind, s.current.Meta.ID)
	s.emit(Event{Type: EventAction, Action: key, Kind: s.current.Meta.Kind})
	return b, nil
}

// emit must be called with mu held so events leave in version order.
func (s *Slot) emit(evt Event) {
	if s.bus == nil {
		return
	}
	evt.ID = uuid.NewString()
	evt.Version = s.version
	evt.At = s.now().UTC()
	s.bus.Publish(evt)
}
